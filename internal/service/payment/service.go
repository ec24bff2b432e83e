package payment

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/dto"
	ordersvc "github.com/birkolabs/vitrin/internal/service/order"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/payment")

// Service turns a checkout request into an order record plus a hosted
// checkout session. The order insert and the session update are two
// independent writes; a crash between them leaves an order without a
// session reference, recovered by retry or an admin edit.
type Service struct {
	orders   *ordersvc.Service
	provider CheckoutProvider
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders   *ordersvc.Service
	Provider CheckoutProvider
	Logger   *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:   p.Orders,
		provider: p.Provider,
		logger:   p.Logger,
	}
}

// CreateCheckout captures the order and starts a checkout session for
// it. The demo provider never fails; with a real provider a session
// failure still leaves the captured order in place and is reported.
func (s *Service) CreateCheckout(ctx context.Context, in ordersvc.CreateInput) (*dto.CheckoutResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "PaymentService.CreateCheckout")
	defer span.End()

	order, err := s.orders.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	sess, err := s.provider.CreateSession(ctx, CheckoutItem{
		Name:      order.ProductName,
		UnitPrice: order.ProductPrice,
		Quantity:  order.Quantity,
		OrderNum:  order.Number,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
		s.logger.Error("checkout session failed",
			zap.String("order", order.Number), zap.Error(err))
		return nil, errorbank.Internal("failed to start checkout", errorbank.WithCause(err))
	}

	if err := s.orders.MarkCheckoutStarted(ctx, order.ID, sess.ID); err != nil {
		// The session exists and the order exists; only the link is
		// missing. Report success with the session so the buyer can
		// pay, and leave reconciliation to the admin view.
		s.logger.Warn("order not linked to checkout session",
			zap.String("order", order.Number), zap.String("session", sess.ID), zap.Error(err))
	}

	return &dto.CheckoutResponse{
		URL:         sess.URL,
		SessionID:   sess.ID,
		OrderNumber: order.Number,
		Demo:        sess.Demo,
	}, nil
}
