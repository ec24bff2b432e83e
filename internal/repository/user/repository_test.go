package user

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

func testUser(email string) *entity.User {
	return &entity.User{
		Name:     "Mehmet Yılmaz",
		Email:    email,
		Password: "$2a$10$fakehashfakehashfakehash",
		Phone:    "+90 555 444 33 22",
		Role:     entity.RoleUser,
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("dup@example.com")))

	err := repo.Create(ctx, testUser("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestListAllExcludesPasswordHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("a@example.com")))

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].Password)
}

func TestApproveMovesUserBetweenLists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := testUser("pending@example.com")
	require.NoError(t, repo.Create(ctx, u))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	got, err := repo.Approve(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Empty(t, got.Password)

	pending, err = repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := repo.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.True(t, approved[0].IsApproved)
}

func TestApproveBumpsUpdatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := testUser("stamp@example.com")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.Approve(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.IsZero())

	stored, err := repo.GetByEmail(ctx, "stamp@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsApproved)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestApproveMissingUser(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Approve(context.Background(), 777)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectDeletesApprovedUserToo(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := testUser("flow@example.com")
	require.NoError(t, repo.Create(ctx, u))
	_, err := repo.Approve(ctx, u.ID)
	require.NoError(t, err)

	// Reject after approve removes the account outright.
	snapshot, err := repo.Reject(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "flow@example.com", snapshot.Email)

	// A second reject finds nothing.
	_, err = repo.Reject(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByEmail(ctx, "flow@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := testUser("dealer@example.com")
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.UpdateRole(ctx, u.ID, entity.RoleDealer))

	got, err := repo.GetByEmail(ctx, "dealer@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleDealer, got.Role)

	assert.ErrorIs(t, repo.UpdateRole(ctx, 999, entity.RoleAdmin), ErrNotFound)
}
