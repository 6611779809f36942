package postgres

import (
	"context"
	"fmt"

	"eventmanager/internal/domain"
)

type categoryRepository struct {
	DB DBTX
}

// NewCategoryRepository returns a domain.CategoryRepository implemented with Postgres.
func NewCategoryRepository(db DBTX) domain.CategoryRepository {
	return &categoryRepository{DB: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &c, nil
}

func (r *categoryRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, translateWriteError(notFoundOr(err, "category", id))
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: category name %q already exists", domain.ErrConflict, c.Name)
		}
		return translateWriteError(err)
	}
	return nil
}

func (r *categoryRepository) Rename(ctx context.Context, id, name string) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: category name %q already exists", domain.ErrConflict, name)
		}
		return translateWriteError(notFoundOr(err, "category", id))
	}
	return affectedOrNotFound(result, "category", id)
}

// Delete removes the category. The events foreign key is ON DELETE RESTRICT, so a category
// that gained a referencing event after the caller's check still cannot be removed.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrCategoryInUse
		}
		return translateWriteError(notFoundOr(err, "category", id))
	}
	return affectedOrNotFound(result, "category", id)
}
