package account

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/birkolabs/vitrin/internal/dto"
	"github.com/birkolabs/vitrin/internal/presentation/http/response"
	service "github.com/birkolabs/vitrin/internal/service/account"
	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/birkolabs/vitrin/transport/http/account")

// Handler exposes registration, login and the approval workflow.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an account Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard middleware.AdminGuard) {
	e.POST("/api/register", h.register)
	e.POST("/api/login", h.login)

	g := e.Group("/api/admin", echo.MiddlewareFunc(guard))
	g.GET("/pending-users", h.listPending)
	g.GET("/approved-users", h.listApproved)
	g.POST("/approve-user/:id", h.approve)
	g.POST("/reject-user/:id", h.reject)
	g.PUT("/users/:id/role", h.updateRole)
}

func (h *Handler) register(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.register")
	defer span.End()

	user, err := h.svc.Register(ctx, service.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Phone:    payload.Phone,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewUserResponse(user)).Build()
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.login")
	defer span.End()

	user, token, err := h.svc.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.LoginResponse{
		Token: token,
		User:  dto.NewUserResponse(user),
	}).Build()
}

func (h *Handler) listPending(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "account.listPending")
	defer span.End()

	users, err := h.svc.ListPending(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewUserResponses(users)).Build()
}

func (h *Handler) listApproved(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "account.listApproved")
	defer span.End()

	users, err := h.svc.ListApproved(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewUserResponses(users)).Build()
}

func (h *Handler) approve(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.approve", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Approve(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewUserResponse(user)).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.reject", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Reject(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewUserResponse(user)).Build()
}

func (h *Handler) updateRole(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "account.updateRole", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := h.svc.UpdateRole(ctx, id, payload.Role); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"role": payload.Role}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}
