package app

import (
	"go.uber.org/fx"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/cache"
	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/logger"
	"github.com/birkolabs/vitrin/internal/messaging"
	"github.com/birkolabs/vitrin/internal/observability"
	"github.com/birkolabs/vitrin/internal/ratelimit"
	repositoryorder "github.com/birkolabs/vitrin/internal/repository/order"
	repositoryproduct "github.com/birkolabs/vitrin/internal/repository/product"
	repositorysettings "github.com/birkolabs/vitrin/internal/repository/settings"
	repositoryuser "github.com/birkolabs/vitrin/internal/repository/user"
	httpserver "github.com/birkolabs/vitrin/internal/server/http"
	serviceaccount "github.com/birkolabs/vitrin/internal/service/account"
	servicecatalog "github.com/birkolabs/vitrin/internal/service/catalog"
	servicemarket "github.com/birkolabs/vitrin/internal/service/market"
	serviceorder "github.com/birkolabs/vitrin/internal/service/order"
	servicepayment "github.com/birkolabs/vitrin/internal/service/payment"
	servicesettings "github.com/birkolabs/vitrin/internal/service/settings"
	serviceupload "github.com/birkolabs/vitrin/internal/service/upload"
	transporthttp "github.com/birkolabs/vitrin/internal/transport/http"
	"github.com/birkolabs/vitrin/internal/worker"
	workerorder "github.com/birkolabs/vitrin/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
// Bootstrap runs on start: schema, admin account and default settings
// are guaranteed before any request is served.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	bootstrap.Module,
	repositoryproduct.Module,
	repositoryorder.Module,
	repositoryuser.Module,
	repositorysettings.Module,
	servicecatalog.Module,
	serviceorder.Module,
	serviceaccount.Module,
	servicesettings.Module,
	servicemarket.Module,
	servicepayment.Module,
	serviceupload.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	ratelimit.Module,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
