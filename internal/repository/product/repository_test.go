package product

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bootstrap.EnsureSchema(context.Background(), db))
	return NewRepository(&database.Connections{Writer: db, Reader: db})
}

func TestCreateDefaultsStockToZero(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Ring A", Category: "Altın", Price: 1000}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSoftDeleteHidesButKeepsRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	keep := &entity.Product{Name: "Kolye", Category: "Gümüş", Price: 300}
	gone := &entity.Product{Name: "Yüzük", Category: "Altın", Price: 900}
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, gone))

	require.NoError(t, repo.SoftDelete(ctx, gone.ID))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	_, err = repo.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The row itself stays in the table.
	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Bilezik", Category: "Altın", Price: 2500}
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.SoftDelete(ctx, p.ID))
	require.NoError(t, repo.SoftDelete(ctx, p.ID))

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdateOverwritesAndBumpsUpdatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Küpe", Category: "Gümüş", Price: 150, Stock: 3}
	require.NoError(t, repo.Create(ctx, p))

	p.Price = 175
	p.Stock = 7
	require.NoError(t, repo.Update(ctx, p.ID, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 175.0, got.Price)
	assert.Equal(t, 7, got.Stock)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpdateMissingProductReturnsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Update(ctx, 424242, &entity.Product{Name: "x", Category: "y", Price: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
