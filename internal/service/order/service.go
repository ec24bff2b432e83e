package order

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

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/entity"
	"github.com/birkolabs/vitrin/internal/messaging"
	repo "github.com/birkolabs/vitrin/internal/repository/order"
	productrepo "github.com/birkolabs/vitrin/internal/repository/product"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/order")

// Service encapsulates business logic around orders.
type Service struct {
	repo      *repo.Repository
	products  *productrepo.Repository
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Products   *productrepo.Repository
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		products:  p.Products,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// CreateInput carries everything needed to capture a checkout.
// ProductID resolves the snapshot from the catalog; when zero, the
// inline ProductName/ProductPrice are used as-is.
type CreateInput struct {
	ProductID    int64
	ProductName  string
	ProductPrice float64
	Quantity     int

	CustomerFirstName  string
	CustomerLastName   string
	NationalID         string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
	CustomerCity       string
	CustomerDistrict   string
	CustomerPostalCode string
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Get retrieves an order by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

// Create captures a checkout as an order. The product name and unit
// price are snapshotted at this moment and the total is computed from
// them; later catalog edits never touch these columns.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if in.Quantity < 1 {
		return nil, errorbank.BadRequest("quantity must be at least 1")
	}
	if err := validateCustomer(in); err != nil {
		return nil, err
	}

	name, price := in.ProductName, in.ProductPrice
	if in.ProductID > 0 {
		product, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, productrepo.ErrNotFound) {
				return nil, errorbank.NotFound("product not found")
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
		name, price = product.Name, product.Price
	}
	if name == "" || price <= 0 {
		return nil, errorbank.BadRequest("a product id or an inline product name and positive price is required")
	}

	order := &entity.Order{
		ProductID:          in.ProductID,
		ProductName:        name,
		ProductPrice:       price,
		Quantity:           in.Quantity,
		TotalAmount:        price * float64(in.Quantity),
		CustomerFirstName:  in.CustomerFirstName,
		CustomerLastName:   in.CustomerLastName,
		NationalID:         in.NationalID,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		CustomerAddress:    in.CustomerAddress,
		CustomerCity:       in.CustomerCity,
		CustomerDistrict:   in.CustomerDistrict,
		CustomerPostalCode: in.CustomerPostalCode,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	span.SetAttributes(attribute.String("order.number", order.Number))

	s.publishOrderCreated(ctx, order)
	return order, nil
}

// UpdateStatus applies a partial status change: nil leaves a field
// untouched. Values are checked against the known vocabularies, but
// there is no transition graph between them; sequencing is admin
// discretion.
func (s *Service) UpdateStatus(ctx context.Context, id int64, orderStatus, paymentStatus *string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if orderStatus == nil && paymentStatus == nil {
		return nil, errorbank.BadRequest("at least one of orderStatus and paymentStatus is required")
	}
	if orderStatus != nil && !validOrderStatus(*orderStatus) {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", *orderStatus))
	}
	if paymentStatus != nil && !validPaymentStatus(*paymentStatus) {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid payment status: %s", *paymentStatus))
	}

	order, err := s.repo.UpdateStatus(ctx, id, orderStatus, paymentStatus)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	return order, nil
}

// MarkCheckoutStarted records the hosted-checkout session and flips
// the payment status to processing. Two writes with no transaction;
// see the checkout flow docs.
func (s *Service) MarkCheckoutStarted(ctx context.Context, id int64, sessionID string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.MarkCheckoutStarted", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.repo.SetCheckoutSession(ctx, id, sessionID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to record checkout session", errorbank.WithCause(err))
	}
	processing := entity.PaymentProcessing
	if _, err := s.repo.UpdateStatus(ctx, id, nil, &processing); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update payment status", errorbank.WithCause(err))
	}
	return nil
}

func validateCustomer(in CreateInput) error {
	missing := func(field, label string) error {
		if field == "" {
			return errorbank.BadRequest(label + " is required")
		}
		return nil
	}
	checks := []error{
		missing(in.CustomerFirstName, "customer first name"),
		missing(in.CustomerLastName, "customer last name"),
		missing(in.NationalID, "national id"),
		missing(in.CustomerEmail, "customer email"),
		missing(in.CustomerPhone, "customer phone"),
		missing(in.CustomerAddress, "customer address"),
		missing(in.CustomerCity, "customer city"),
		missing(in.CustomerDistrict, "customer district"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func validOrderStatus(status string) bool {
	switch status {
	case entity.OrderPending, entity.OrderProcessing, entity.OrderShipped, entity.OrderCompleted:
		return true
	}
	return false
}

func validPaymentStatus(status string) bool {
	switch status {
	case entity.PaymentPending, entity.PaymentProcessing, entity.PaymentCompleted:
		return true
	}
	return false
}

func (s *Service) publishOrderCreated(ctx context.Context, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := CreatedEvent{
		ID:          order.ID,
		Number:      order.Number,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order created", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order created", zap.Error(err))
		}
	}
}

// CreatedEvent is emitted when a new order is persisted.
type CreatedEvent struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}
