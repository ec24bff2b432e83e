package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/database"
	productrepo "github.com/birkolabs/vitrin/internal/repository/product"
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

	return NewService(Params{
		Repository: productrepo.NewRepository(&database.Connections{Writer: db, Reader: db}),
		Config:     config.Config{},
		Logger:     zap.NewNop(),
	})
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }

func TestCreateRequiresCoreFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Ring", Price: 100})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = svc.Create(ctx, CreateInput{Name: "Ring", Category: "Altın", Price: -5})
	require.Error(t, err)
}

func TestUpdateMergesPartialInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name: "Ring A", Category: "Altın", Price: 1000, Description: "El işi", Stock: 4,
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{Price: f64Ptr(1200)})
	require.NoError(t, err)

	// Only price changed; the rest was merged from the stored row.
	assert.Equal(t, 1200.0, updated.Price)
	assert.Equal(t, "Ring A", updated.Name)
	assert.Equal(t, "El işi", updated.Description)
	assert.Equal(t, 4, updated.Stock)
}

func TestUpdateCanTouchEveryField(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Kolye", Category: "Gümüş", Price: 200})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{
		Name:        strPtr("Kolye Deluxe"),
		Description: strPtr("925 ayar"),
		Price:       f64Ptr(260),
		Category:    strPtr("Gümüş"),
		Image:       strPtr("/kolye-deluxe.png"),
		Stock:       intPtr(9),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kolye Deluxe", updated.Name)
	assert.Equal(t, 9, updated.Stock)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Ring A", Category: "Altın", Price: 1000})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), 31337, UpdateInput{Price: f64Ptr(1)})
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}
