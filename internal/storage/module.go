package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/config"
	"github.com/polkiloo/printerd/internal/domain/repository"
	"github.com/polkiloo/printerd/internal/storage/mongo"
	"github.com/polkiloo/printerd/internal/storage/postgres"
)

// Module selects the store backend from config and exposes its repositories.
var Module = fx.Options(
	fx.Provide(NewFactory),
	fx.Provide(
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.OrderFeed { return f.OrderFeed() },
		func(f repository.Factory) repository.CommandRepository { return f.Commands() },
		func(f repository.Factory) repository.CommandFeed { return f.CommandFeed() },
		func(f repository.Factory) repository.StatusRepository { return f.Status() },
	),
)

type factoryParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// NewFactory opens the configured store.
func NewFactory(p factoryParams) (repository.Factory, error) {
	switch p.Config.StoreDriver {
	case config.StoreDriverMongo:
		store, err := mongo.Open(mongo.StoreParams{Ctx: p.Ctx, Lifecycle: p.Lifecycle, Config: p.Config, Logger: p.Logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		storage, err := postgres.Open(postgres.StorageParams{Ctx: p.Ctx, Lifecycle: p.Lifecycle, Config: p.Config, Logger: p.Logger})
		if err != nil {
			return nil, err
		}
		return storage, nil
	}
}
