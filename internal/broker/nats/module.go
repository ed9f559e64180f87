package nats

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/config"
)

// Module provides the NATS publisher.
var Module = fx.Options(
	fx.Provide(newPublisher),
)

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	p, err := NewPublisher(cfg.NATSURL, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			p.Close()
			return nil
		},
	})
	return p, nil
}
