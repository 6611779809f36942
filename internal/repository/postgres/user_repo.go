package postgres

import (
	"context"

	"eventmanager/internal/domain"
)

type userRepository struct {
	DB DBTX
}

// NewUserRepository returns a read-only domain.UserRepository implemented with Postgres.
func NewUserRepository(db DBTX) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, date_of_birth
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.DateOfBirth)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return u, nil
}
