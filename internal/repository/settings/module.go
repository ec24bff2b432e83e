package settings

import "go.uber.org/fx"

// Module provides the settings repository to Fx.
var Module = fx.Provide(NewRepository)
