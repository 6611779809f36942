package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventmanager/internal/domain"
)

func TestCategoryRepository_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    []*domain.Category
		wantErr bool
	}{
		{
			name: "empty list",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name FROM categories ORDER BY name`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
			},
			want: []*domain.Category{},
		},
		{
			name: "returns categories",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name FROM categories ORDER BY name`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
						AddRow("c1", "Conference").
						AddRow("c2", "Meetup"))
			},
			want: []*domain.Category{{ID: "c1", Name: "Conference"}, {ID: "c2", Name: "Meetup"}},
		},
		{
			name: "query error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name FROM categories`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewCategoryRepository(db).List(ctx)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name FROM categories WHERE id = \$1$`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c1", "Conference"))
	mock.ExpectQuery(`SELECT id, name FROM categories WHERE id = \$1 FOR UPDATE`).
		WithArgs("c2").
		WillReturnError(sql.ErrNoRows)

	repo := NewCategoryRepository(db)
	c, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, &domain.Category{ID: "c1", Name: "Conference"}, c)

	_, err = repo.GetByIDForUpdate(ctx, "c2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO categories \(id, name\) VALUES \(\$1, \$2\)`).
					WithArgs("c1", "Conference").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate name",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO categories`).WillReturnError(&pq.Error{Code: "23505"})
			},
			errIs: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewCategoryRepository(db).Create(ctx, &domain.Category{ID: "c1", Name: "Conference"})
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_Rename(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories SET name = \$2 WHERE id = \$1`).
					WithArgs("c1", "Workshop").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing category",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			errIs: domain.ErrNotFound,
		},
		{
			name: "name taken",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories`).WillReturnError(&pq.Error{Code: "23505"})
			},
			errIs: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewCategoryRepository(db).Rename(ctx, "c1", "Workshop")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
					WithArgs("c1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM categories`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			errIs: domain.ErrNotFound,
		},
		{
			name: "referenced by an event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM categories`).WillReturnError(&pq.Error{Code: "23503"})
			},
			errIs: domain.ErrCategoryInUse,
		},
		{
			name: "lock timeout",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM categories`).WillReturnError(&pq.Error{Code: "55P03"})
			},
			errIs: domain.ErrWriteConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewCategoryRepository(db).Delete(ctx, "c1")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
