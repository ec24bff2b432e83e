package order

import (
	"context"
	"database/sql"
	"regexp"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
	productrepo "github.com/birkolabs/vitrin/internal/repository/product"
)

func newTestRepos(t *testing.T) (*Repository, *productrepo.Repository) {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bootstrap.EnsureSchema(context.Background(), db))
	conns := &database.Connections{Writer: db, Reader: db}
	return NewRepository(conns), productrepo.NewRepository(conns)
}

func testOrder(productID int64, name string, price float64, qty int) *entity.Order {
	return &entity.Order{
		ProductID:         productID,
		ProductName:       name,
		ProductPrice:      price,
		Quantity:          qty,
		TotalAmount:       price * float64(qty),
		CustomerFirstName: "Ayşe",
		CustomerLastName:  "Demir",
		NationalID:        "12345678901",
		CustomerEmail:     "ayse@example.com",
		CustomerPhone:     "+90 555 111 22 33",
		CustomerAddress:   "Kuyumcular Çarşısı No:4",
		CustomerCity:      "İstanbul",
		CustomerDistrict:  "Fatih",
	}
}

func TestNewNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^BRK\d{13,}[0-9A-Z]{5}$`)
	for i := 0; i < 50; i++ {
		n := NewNumber()
		assert.Regexp(t, pattern, n)
	}
}

func TestNumbersUniqueUnderConcurrency(t *testing.T) {
	const total = 2000

	var mu sync.Mutex
	seen := make(map[string]struct{}, total)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < total/8; j++ {
				n := NewNumber()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
}

func TestSnapshotSurvivesProductEdit(t *testing.T) {
	orders, products := newTestRepos(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Tam Altın", Category: "Altın", Price: 500}
	require.NoError(t, products.Create(ctx, p))

	o := testOrder(p.ID, p.Name, p.Price, 3)
	require.NoError(t, orders.Create(ctx, o))
	require.Equal(t, 1500.0, o.TotalAmount)

	// Edit the catalog row; the order's snapshot must not move.
	p.Price = 999
	p.Name = "Tam Altın (Yeni)"
	require.NoError(t, products.Update(ctx, p.ID, p))

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tam Altın", got.ProductName)
	assert.Equal(t, 500.0, got.ProductPrice)
	assert.Equal(t, 1500.0, got.TotalAmount)

	// The display-only join reflects the current catalog state.
	assert.Equal(t, "Tam Altın (Yeni)", got.CurrentProductName)
}

func TestListAllNewestFirstWithJoin(t *testing.T) {
	orders, products := newTestRepos(t)
	ctx := context.Background()

	p := &entity.Product{Name: "Kolye", Category: "Gümüş", Price: 200, Image: "/kolye.png"}
	require.NoError(t, products.Create(ctx, p))

	first := testOrder(p.ID, p.Name, p.Price, 1)
	second := testOrder(0, "El yapımı broş", 320, 2)
	require.NoError(t, orders.Create(ctx, first))
	require.NoError(t, orders.Create(ctx, second))

	all, err := orders.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byNumber := map[string]entity.Order{}
	for _, o := range all {
		byNumber[o.Number] = o
	}
	assert.Equal(t, "/kolye.png", byNumber[first.Number].CurrentProductImage)
	// No catalog row behind the inline order; join columns stay empty.
	assert.Empty(t, byNumber[second.Number].CurrentProductName)
}

func TestUpdateStatusPartial(t *testing.T) {
	orders, _ := newTestRepos(t)
	ctx := context.Background()

	o := testOrder(0, "Granül Gümüş", 33, 10)
	require.NoError(t, orders.Create(ctx, o))
	require.Equal(t, entity.PaymentPending, o.PaymentStatus)

	shipped := entity.OrderShipped
	got, err := orders.UpdateStatus(ctx, o.ID, &shipped, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.OrderShipped, got.OrderStatus)
	assert.Equal(t, entity.PaymentPending, got.PaymentStatus)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	orders, _ := newTestRepos(t)
	ctx := context.Background()

	done := entity.OrderCompleted
	_, err := orders.UpdateStatus(ctx, 999, &done, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetCheckoutSession(t *testing.T) {
	orders, _ := newTestRepos(t)
	ctx := context.Background()

	o := testOrder(0, "Hurda Gümüş", 27, 100)
	require.NoError(t, orders.Create(ctx, o))

	require.NoError(t, orders.SetCheckoutSession(ctx, o.ID, "cs_test_123"))

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", got.CheckoutSessionID)
}
