package payment

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/birkolabs/vitrin/internal/presentation/http/response"
	ordersvc "github.com/birkolabs/vitrin/internal/service/order"
	service "github.com/birkolabs/vitrin/internal/service/payment"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/birkolabs/vitrin/transport/http/payment")

// Handler exposes the checkout endpoint over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a payment Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/api/payments/create-checkout-session", h.createCheckout)
}

// checkoutPayload mirrors what the storefront cart submits.
type checkoutPayload struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductPrice float64 `json:"productPrice"`
	Quantity     int     `json:"quantity"`

	Customer struct {
		FirstName  string `json:"firstName"`
		LastName   string `json:"lastName"`
		NationalID string `json:"nationalId"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Address    string `json:"address"`
		City       string `json:"city"`
		District   string `json:"district"`
		PostalCode string `json:"postalCode"`
	} `json:"customer"`
}

func (h *Handler) createCheckout(c echo.Context) error {
	b := response.New(c)

	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.createCheckout")
	defer span.End()

	checkout, err := h.svc.CreateCheckout(ctx, ordersvc.CreateInput{
		ProductID:          payload.ProductID,
		ProductName:        payload.ProductName,
		ProductPrice:       payload.ProductPrice,
		Quantity:           payload.Quantity,
		CustomerFirstName:  payload.Customer.FirstName,
		CustomerLastName:   payload.Customer.LastName,
		NationalID:         payload.Customer.NationalID,
		CustomerEmail:      payload.Customer.Email,
		CustomerPhone:      payload.Customer.Phone,
		CustomerAddress:    payload.Customer.Address,
		CustomerCity:       payload.Customer.City,
		CustomerDistrict:   payload.Customer.District,
		CustomerPostalCode: payload.Customer.PostalCode,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(checkout).Build()
}
