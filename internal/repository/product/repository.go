package product

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

var repoTracer = otel.Tracer("github.com/birkolabs/vitrin/repository/product")

// ErrNotFound is returned when no active product matches.
var ErrNotFound = errors.New("product not found")

// Repository encapsulates read/write access for catalog products.
// Reads only ever see active rows; soft-deleted products stay in the
// table but are invisible here.
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

// ListActive returns all active products, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.ListActive")
	defer span.End()

	var products []entity.Product
	err := r.reader.NewSelect().Model(&products).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}

// GetByID fetches an active product by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).
		Where("id = ?", id).
		Where("is_active = ?", true).
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
	return product, nil
}

// Create persists a new product. Stock defaults to zero when the
// caller leaves it unset.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.IsActive = true

	_, err := r.writer.NewInsert().Model(product).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update overwrites all mutable columns. The caller is responsible
// for merging existing values into product first; untouched fields
// would otherwise be zeroed.
func (r *Repository) Update(ctx context.Context, id int64, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Update", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product.UpdatedAt = time.Now().UTC()

	res, err := r.writer.NewUpdate().Model(product).
		Column("name", "description", "price", "category", "image", "stock", "updated_at").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides a product from all reads. Idempotent: deleting an
// already-hidden row is a no-op success.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.SoftDelete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	_, err := r.writer.NewUpdate().Model((*entity.Product)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// CountAll returns the number of rows including soft-deleted ones.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	return r.reader.NewSelect().Model((*entity.Product)(nil)).Count(ctx)
}
