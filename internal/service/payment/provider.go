package payment

import (
	"context"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/config"
)

// CheckoutItem describes what is being paid for.
type CheckoutItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
	OrderNum  string
}

// CheckoutSession is the provider's answer: where to send the buyer.
type CheckoutSession struct {
	ID   string
	URL  string
	Demo bool
}

// CheckoutProvider starts a hosted checkout for an item.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, item CheckoutItem) (*CheckoutSession, error)
}

// NewProvider selects the provider from configuration. No secret key
// means the demo provider; checkout keeps working without external
// credentials.
func NewProvider(cfg config.Config, logger *zap.Logger) CheckoutProvider {
	if cfg.Payments.StripeSecretKey == "" {
		logger.Info("no payment secret configured; using demo checkout")
		return demoProvider{}
	}
	return &stripeProvider{cfg: cfg.Payments}
}

type demoProvider struct{}

func (demoProvider) CreateSession(_ context.Context, item CheckoutItem) (*CheckoutSession, error) {
	return &CheckoutSession{
		ID:   "demo_" + item.OrderNum,
		URL:  fmt.Sprintf("/odeme/demo?order=%s", item.OrderNum),
		Demo: true,
	}, nil
}

type stripeProvider struct {
	cfg config.Payments
}

func (p *stripeProvider) CreateSession(ctx context.Context, item CheckoutItem) (*CheckoutSession, error) {
	stripe.Key = p.cfg.StripeSecretKey

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
					// Stripe amounts are in the currency's minor unit.
					UnitAmount: stripe.Int64(minorUnits(item.UnitPrice)),
				},
				Quantity: stripe.Int64(int64(item.Quantity)),
			},
		},
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		ClientReferenceID: stripe.String(item.OrderNum),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// minorUnits converts a price to the currency's minor unit. Rounding
// instead of truncating keeps float artifacts like 10.555*100=1055.49…
// from shaving a kuruş off the charge.
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
