package http

import (
	"go.uber.org/fx"

	accounttransport "github.com/birkolabs/vitrin/internal/transport/http/account"
	markettransport "github.com/birkolabs/vitrin/internal/transport/http/market"
	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
	ordertransport "github.com/birkolabs/vitrin/internal/transport/http/order"
	paymenttransport "github.com/birkolabs/vitrin/internal/transport/http/payment"
	producttransport "github.com/birkolabs/vitrin/internal/transport/http/product"
	settingstransport "github.com/birkolabs/vitrin/internal/transport/http/settings"
	uploadtransport "github.com/birkolabs/vitrin/internal/transport/http/upload"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	producttransport.Module,
	accounttransport.Module,
	ordertransport.Module,
	paymenttransport.Module,
	settingstransport.Module,
	markettransport.Module,
	uploadtransport.Module,
)
