package domain

import "context"

// Category is reference data that events point at by id. Names are unique and
// case-sensitive.
// swagger:model Category
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRepository defines storage for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	// GetByIDForUpdate loads the category and locks its row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// CategoryService is the category directory.
type CategoryService interface {
	List(ctx context.Context) ([]*Category, error)
	Add(ctx context.Context, name string) (*Category, error)
	Rename(ctx context.Context, id, name string) (*Category, error)
	Delete(ctx context.Context, id string) error
}
