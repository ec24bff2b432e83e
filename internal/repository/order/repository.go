package order

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

var repoTracer = otel.Tracer("github.com/birkolabs/vitrin/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

const (
	numberPrefix = "BRK"
	suffixLen    = 5
	suffixSpace  = 36 * 36 * 36 * 36 * 36
)

// numberSeq feeds the order number suffix. Seeded from crypto/rand so
// restarts don't repeat a sequence within the same millisecond; the
// atomic increment makes numbers process-unique under concurrency.
var numberSeq = func() *uint64 {
	var seed [8]byte
	_, _ = rand.Read(seed[:])
	v := binary.BigEndian.Uint64(seed[:])
	return &v
}()

// NewNumber generates an order number: BRK + unix millis + 5-char
// upper base36 suffix.
func NewNumber() string {
	n := atomic.AddUint64(numberSeq, 1) % suffixSpace
	suffix := strings.ToUpper(fmt.Sprintf("%0*s", suffixLen, strconv36(n)))
	return fmt.Sprintf("%s%d%s", numberPrefix, time.Now().UnixMilli(), suffix)
}

func strconv36(n uint64) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "0"
	}
	var b [13]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = digits[n%36]
		n /= 36
	}
	return string(b[i:])
}

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// joinSelect left-joins the current catalog row for display columns.
// The joined name/image reflect the product as it is now; the
// snapshot columns on the order are not touched.
func (r *Repository) joinSelect(orders any) *bun.SelectQuery {
	return r.reader.NewSelect().Model(orders).
		ModelTableExpr("orders AS o").
		ColumnExpr("o.*").
		ColumnExpr("p.name AS current_product_name").
		ColumnExpr("p.image AS current_product_image").
		Join("LEFT JOIN products AS p ON p.id = o.product_id")
}

// ListAll returns all orders, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListAll")
	defer span.End()

	var orders []entity.Order
	err := r.joinSelect(&orders).
		OrderExpr("o.created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// GetByID fetches an order by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.joinSelect(order).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// Create persists a new order, generating its number when absent.
// The snapshot columns must already be filled in by the caller.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	if order.Number == "" {
		order.Number = NewNumber()
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.PaymentStatus == "" {
		order.PaymentStatus = entity.PaymentPending
	}
	if order.OrderStatus == "" {
		order.OrderStatus = entity.OrderPending
	}

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// UpdateStatus applies a partial status update: each field only when
// non-nil. updated_at is always bumped. There is deliberately no
// coupling between the two status fields.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, orderStatus, paymentStatus *string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	q := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id)
	if orderStatus != nil {
		q = q.Set("order_status = ?", *orderStatus)
	}
	if paymentStatus != nil {
		q = q.Set("payment_status = ?", *paymentStatus)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// SetCheckoutSession stores the hosted-checkout session reference.
// This is a second independent write after Create; a crash in between
// leaves the order without a session reference, which an admin edit
// or retry recovers.
func (r *Repository) SetCheckoutSession(ctx context.Context, id int64, sessionID string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.SetCheckoutSession", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("checkout_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
