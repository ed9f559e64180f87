package observability

import (
	"context"

	"go.uber.org/fx"
)

// Module provides print metrics and stops the meter provider on shutdown.
var Module = fx.Options(
	fx.Provide(NewMetrics),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, m *Metrics) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return m.Shutdown(ctx)
		},
	})
}
