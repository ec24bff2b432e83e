package market

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/birkolabs/vitrin/internal/presentation/http/response"
	service "github.com/birkolabs/vitrin/internal/service/market"
)

var httpTracer = otel.Tracer("github.com/birkolabs/vitrin/transport/http/market")

// Handler exposes the simulated price board over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a market Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/market", h.quotes)
}

func (h *Handler) quotes(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "market.quotes")
	defer span.End()

	return b.WithData(h.svc.Quotes(ctx)).Build()
}
