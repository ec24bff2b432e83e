package upload

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/birkolabs/vitrin/internal/presentation/http/response"
	service "github.com/birkolabs/vitrin/internal/service/upload"
	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/birkolabs/vitrin/transport/http/upload")

// Handler exposes image upload over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an upload Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard middleware.AdminGuard) {
	e.POST("/api/upload", h.upload, echo.MiddlewareFunc(guard))
}

func (h *Handler) upload(c echo.Context) error {
	b := response.New(c)

	file, err := c.FormFile("image")
	if err != nil {
		return b.WithError(errorbank.BadRequest("image file is required", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "upload.save")
	defer span.End()

	stored, err := h.svc.Save(ctx, file)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(stored).Build()
}
