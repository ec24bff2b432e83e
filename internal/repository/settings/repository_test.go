package settings

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

func TestGetMissingSection(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), entity.SettingsHome)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertReplacesValue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, entity.SettingsGeneral, `{"siteName":"Birko"}`))
	require.NoError(t, repo.Upsert(ctx, entity.SettingsGeneral, `{"siteName":"Birko Kuyumculuk"}`))

	got, err := repo.Get(ctx, entity.SettingsGeneral)
	require.NoError(t, err)
	assert.JSONEq(t, `{"siteName":"Birko Kuyumculuk"}`, got)
}

func TestGetAllKeysBySection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, entity.SettingsNavbar, `{"logoText":"Birko"}`))
	require.NoError(t, repo.Upsert(ctx, entity.SettingsFooter, `{"companyName":"Birko"}`))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, entity.SettingsNavbar)
	assert.Contains(t, all, entity.SettingsFooter)
}
