package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/cache"
	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/entity"
	repo "github.com/birkolabs/vitrin/internal/repository/product"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/catalog")

// Service encapsulates business logic around the product catalog.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// CreateInput carries the fields accepted when creating a product.
type CreateInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Image       string
	Stock       int
}

// UpdateInput carries a partial product update. Nil fields keep the
// stored value; the merge happens here so the repository can do a
// plain full-column overwrite.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Image       *string
	Stock       *int
}

// List returns all active products.
func (s *Service) List(ctx context.Context) ([]entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.List")
	defer span.End()

	products, err := s.repo.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load products", errorbank.WithCause(err))
	}
	return products, nil
}

// Get retrieves an active product by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if product, err := s.getFromCache(ctx, id); err == nil {
		return product, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		if s.logger != nil {
			s.logger.Warn("products cache read failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, product); err != nil {
		if s.logger != nil {
			s.logger.Warn("products cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	return product, nil
}

// Create adds a product to the catalog. Stock defaults to zero when
// absent from the input.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Product, error) {
	if in.Name == "" || in.Category == "" || in.Price <= 0 {
		return nil, errorbank.BadRequest("name, category and a positive price are required")
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Create", trace.WithAttributes(attribute.String("product.name", in.Name)))
	defer span.End()

	product := &entity.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		Stock:       in.Stock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, product); err != nil {
		if s.logger != nil {
			s.logger.Warn("products cache write failed", zap.Int64("id", product.ID), zap.Error(err))
		}
	}

	return product, nil
}

// Update merges the incoming fields over the stored product and
// overwrites the row, then invalidates cache state.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Update", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	if in.Name != nil {
		existing.Name = *in.Name
	}
	if in.Description != nil {
		existing.Description = *in.Description
	}
	if in.Price != nil {
		existing.Price = *in.Price
	}
	if in.Category != nil {
		existing.Category = *in.Category
	}
	if in.Image != nil {
		existing.Image = *in.Image
	}
	if in.Stock != nil {
		existing.Stock = *in.Stock
	}
	if existing.Name == "" || existing.Category == "" || existing.Price <= 0 {
		return nil, errorbank.BadRequest("name, category and a positive price are required")
	}

	if err := s.repo.Update(ctx, id, existing); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return existing, nil
}

// Delete soft-deletes a product and drops it from the cache. Deleting
// an already-hidden product still succeeds.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Delete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete product", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		if s.logger != nil {
			s.logger.Warn("products cache invalidation failed", zap.Int64("id", id), zap.Error(err))
		}
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("products:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Product, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var product entity.Product
	if err := json.Unmarshal(bytes, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) storeInCache(ctx context.Context, product *entity.Product) error {
	if s.cache == nil || product == nil {
		return nil
	}
	bytes, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(product.ID), bytes, s.cacheTTL)
}
