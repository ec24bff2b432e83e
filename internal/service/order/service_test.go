package order

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
	"github.com/birkolabs/vitrin/internal/entity"
	orderrepo "github.com/birkolabs/vitrin/internal/repository/order"
	productrepo "github.com/birkolabs/vitrin/internal/repository/product"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

func newTestService(t *testing.T) (*Service, *productrepo.Repository) {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bootstrap.EnsureSchema(context.Background(), db))
	conns := &database.Connections{Writer: db, Reader: db}
	products := productrepo.NewRepository(conns)

	svc := NewService(Params{
		Repository: orderrepo.NewRepository(conns),
		Products:   products,
		Config:     config.Config{},
		Logger:     zap.NewNop(),
	})
	return svc, products
}

func validCreate() CreateInput {
	return CreateInput{
		ProductName:        "Çeyrek Altın",
		ProductPrice:       500,
		Quantity:           3,
		CustomerFirstName:  "Ali",
		CustomerLastName:   "Veli",
		NationalID:         "10000000146",
		CustomerEmail:      "ali@example.com",
		CustomerPhone:      "+90 555 987 65 43",
		CustomerAddress:    "Çarşı Cad. No:12",
		CustomerCity:       "Ankara",
		CustomerDistrict:   "Çankaya",
		CustomerPostalCode: "06000",
	}
}

func TestCreateComputesTotalFromSnapshot(t *testing.T) {
	svc, _ := newTestService(t)

	order, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	assert.Equal(t, 1500.0, order.TotalAmount)
	assert.Regexp(t, `^BRK\d{13,}[0-9A-Z]{5}$`, order.Number)
	assert.Equal(t, entity.PaymentPending, order.PaymentStatus)
	assert.Equal(t, entity.OrderPending, order.OrderStatus)
}

func TestCreateSnapshotsCatalogProduct(t *testing.T) {
	svc, products := newTestService(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Yarım Altın", Category: "Altın", Price: 8000}
	require.NoError(t, products.Create(ctx, p))

	in := validCreate()
	in.ProductID = p.ID
	in.ProductName = ""
	in.ProductPrice = 0
	in.Quantity = 2

	order, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Yarım Altın", order.ProductName)
	assert.Equal(t, 16000.0, order.TotalAmount)
}

func TestCreateRejectsBadQuantity(t *testing.T) {
	svc, _ := newTestService(t)

	in := validCreate()
	in.Quantity = 0
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestCreateRejectsMissingCustomerFields(t *testing.T) {
	svc, _ := newTestService(t)

	in := validCreate()
	in.CustomerCity = ""
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestCreateMissingCatalogProduct(t *testing.T) {
	svc, _ := newTestService(t)

	in := validCreate()
	in.ProductID = 4242
	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestUpdateStatusLeavesOtherFieldAlone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	shipped := entity.OrderShipped
	got, err := svc.UpdateStatus(ctx, order.ID, &shipped, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, got.OrderStatus)
	assert.Equal(t, entity.PaymentPending, got.PaymentStatus)
}

func TestUpdateStatusValidatesVocabulary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	bogus := "teleported"
	_, err = svc.UpdateStatus(ctx, order.ID, &bogus, nil)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = svc.UpdateStatus(ctx, order.ID, nil, nil)
	require.Error(t, err)
}

func TestMarkCheckoutStarted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.MarkCheckoutStarted(ctx, order.ID, "cs_live_42"))

	got, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_live_42", got.CheckoutSessionID)
	assert.Equal(t, entity.PaymentProcessing, got.PaymentStatus)
	assert.Equal(t, entity.OrderPending, got.OrderStatus)
}
