package account

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
	userrepo "github.com/birkolabs/vitrin/internal/repository/user"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bootstrap.EnsureSchema(context.Background(), db))

	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour

	return NewService(Params{
		Repository: userrepo.NewRepository(&database.Connections{Writer: db, Reader: db}),
		Config:     cfg,
		Logger:     zap.NewNop(),
	})
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:     "Fatma Kaya",
		Email:    "fatma@example.com",
		Password: "sifre123",
		Phone:    "+90 555 123 45 67",
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService(t)

	in := validInput()
	in.Password = "12345"
	_, err := svc.Register(context.Background(), in)

	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, mutate := range []func(*RegisterInput){
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Email = "not-an-email" },
		func(in *RegisterInput) { in.Name = "" },
		func(in *RegisterInput) { in.Phone = "" },
	} {
		in := validInput()
		mutate(&in)
		_, err := svc.Register(ctx, in)
		require.Error(t, err)
		assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
	}
}

func TestRegisterHashesPasswordAndStartsUnapproved(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.False(t, user.IsApproved)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Empty(t, user.Password)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validInput())
	require.Error(t, err)
	assert.Equal(t, errorbank.KindConflict, errorbank.From(err).Kind())
}

func TestLoginGateOnApproval(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	// Correct credentials, not yet approved.
	_, _, err = svc.Login(ctx, "fatma@example.com", "sifre123")
	require.Error(t, err)

	approved, err := svc.Approve(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.False(t, approved.UpdatedAt.IsZero())
	assert.Empty(t, approved.Password)

	user, token, err := svc.Login(ctx, "fatma@example.com", "sifre123")
	require.NoError(t, err)
	assert.True(t, user.IsApproved)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Empty(t, user.Password)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, entity.RoleUser, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, registered.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "fatma@example.com", "yanlis-sifre")
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestUpdateRoleValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	require.Error(t, svc.UpdateRole(ctx, registered.ID, "superuser"))
	require.NoError(t, svc.UpdateRole(ctx, registered.ID, entity.RoleDealer))
}

func TestApproveThenReject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.Approve(ctx, registered.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, rejected.ID)

	_, err = svc.Reject(ctx, registered.ID)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}
