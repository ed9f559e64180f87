package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/app"
	"github.com/polkiloo/printerd/internal/broker/nats"
	"github.com/polkiloo/printerd/internal/config"
	"github.com/polkiloo/printerd/internal/logger"
	"github.com/polkiloo/printerd/internal/observability"
	"github.com/polkiloo/printerd/internal/printer"
	"github.com/polkiloo/printerd/internal/server/http/router"
	"github.com/polkiloo/printerd/internal/storage"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		observability.Module,
		storage.Module,
		nats.Module,
		printer.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
