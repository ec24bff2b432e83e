package settings

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/birkolabs/vitrin/internal/presentation/http/response"
	service "github.com/birkolabs/vitrin/internal/service/settings"
	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/birkolabs/vitrin/transport/http/settings")

// Handler exposes the site settings document over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a settings Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. Reads are public
// (the SPA renders from them); writes sit behind the admin guard.
func Register(e *echo.Echo, h *Handler, guard middleware.AdminGuard) {
	e.GET("/api/site-settings", h.getAll)
	e.GET("/api/site-settings/:page", h.get)
	e.PUT("/api/site-settings/:page", h.update, echo.MiddlewareFunc(guard))
}

func (h *Handler) getAll(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "settings.getAll")
	defer span.End()

	doc, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(doc).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	page := c.Param("page")

	ctx, span := httpTracer.Start(c.Request().Context(), "settings.get", trace.WithAttributes(attribute.String("settings.page", page)))
	defer span.End()

	doc, err := h.svc.Get(ctx, page)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(doc).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)
	page := c.Param("page")

	var patch map[string]any
	if err := c.Bind(&patch); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "settings.update", trace.WithAttributes(attribute.String("settings.page", page)))
	defer span.End()

	doc, err := h.svc.Update(ctx, page, patch)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(doc).Build()
}
