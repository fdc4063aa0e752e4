package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(&Credentials{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "delivery.db"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())

	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCategory(t *testing.T, repo *Repository, name, slug string) *domain.Category {
	t.Helper()
	c := &domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		Color:     domain.DefaultCategoryColor,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, repo *Repository, categoryID, name, price string, createdAt time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:         uuid.NewString(),
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		CreatedAt:  createdAt,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}
