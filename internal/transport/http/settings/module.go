package settings

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
)

// Module wires HTTP settings handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, guard middleware.AdminGuard) {
		Register(e, h, guard)
	}),
)
