package ratelimit

import "go.uber.org/fx"

// Module provides the rate limiter to Fx.
var Module = fx.Provide(NewLimiter)
