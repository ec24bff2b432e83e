package market

import "go.uber.org/fx"

// Module provides the market service to Fx.
var Module = fx.Provide(NewService)
