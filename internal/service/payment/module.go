package payment

import "go.uber.org/fx"

// Module provides the checkout provider and the payment service.
var Module = fx.Options(
	fx.Provide(NewProvider),
	fx.Provide(NewService),
)
