package mongo

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/config"
)

// StoreParams groups what Open needs from the container.
type StoreParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// Open connects to MongoDB and disconnects when the app stops.
func Open(p StoreParams) (*Store, error) {
	store, err := New(p.Ctx, p.Config.MongoURI, p.Config.MongoDatabase, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{OnStop: store.Close})
	return store, nil
}
