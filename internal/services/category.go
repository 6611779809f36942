package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"eventmanager/internal/domain"
)

type categoryService struct {
	transactor   domain.Transactor
	categoryRepo domain.CategoryRepository
	logger       *slog.Logger
}

// NewCategoryService creates the category directory.
func NewCategoryService(transactor domain.Transactor, categoryRepo domain.CategoryRepository, logger *slog.Logger) domain.CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &categoryService{transactor: transactor, categoryRepo: categoryRepo, logger: logger}
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Add creates a category. Names are compared case-sensitively.
func (s *categoryService) Add(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalidf("category name is required")
	}
	c := &domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *categoryService) Rename(ctx context.Context, id, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalidf("category name is required")
	}
	if err := s.categoryRepo.Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return &domain.Category{ID: id, Name: name}, nil
}

// Delete removes an unused category. The category row is locked for the check so no event
// can start referencing it before the delete.
func (s *categoryService) Delete(ctx context.Context, id string) error {
	return RunInTransaction(ctx, s.transactor, s.logger, "delete_category", func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Categories().GetByIDForUpdate(ctx, id); err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		inUse, err := tx.Events().ExistsWithCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("check category usage: %w", err)
		}
		if inUse {
			return domain.ErrCategoryInUse
		}
		if err := tx.Categories().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
