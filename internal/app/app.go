package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/printerd/internal/broker/nats"
	"github.com/polkiloo/printerd/internal/config"
	"github.com/polkiloo/printerd/internal/domain/repository"
	"github.com/polkiloo/printerd/internal/observability"
	"github.com/polkiloo/printerd/internal/printer"
	"github.com/polkiloo/printerd/internal/receipt"
	"github.com/polkiloo/printerd/internal/server/http/handlers"
	"github.com/polkiloo/printerd/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newPrinterFacade,
		func(f *PrinterFacade) handlers.PrinterFacade { return f },
		newHTTPServer,
		newFormatter,
		newPrintQueue,
		newCommandHandler,
		newMonitor,
		newStatusReporter,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.Address(),
		Handler: p.Router,
	}
}

type facadeParams struct {
	fx.In

	Printer  *printer.Manager
	Queue    *worker.PrintQueue
	Commands repository.CommandRepository
	Metrics  *observability.Metrics
}

func newPrinterFacade(p facadeParams) *PrinterFacade {
	return NewPrinterFacade(p.Printer, p.Queue, p.Commands, p.Metrics)
}

func newFormatter(cfg *config.Config) *receipt.Formatter {
	return receipt.NewFormatter(cfg.PrintWidth, cfg.ReceiptTitle, cfg.Location)
}

type queueParams struct {
	fx.In

	Printer   *printer.Manager
	Formatter *receipt.Formatter
	Orders    repository.OrderRepository
	Events    *nats.Publisher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

func newPrintQueue(p queueParams) *worker.PrintQueue {
	return worker.NewPrintQueue(p.Printer, p.Formatter, p.Orders, p.Events, p.Metrics, worker.QueueOptions{}, p.Logger)
}

type commandParams struct {
	fx.In

	Orders   repository.OrderRepository
	Commands repository.CommandRepository
	Queue    *worker.PrintQueue
	Logger   *slog.Logger
}

func newCommandHandler(p commandParams) *worker.CommandHandler {
	return worker.NewCommandHandler(p.Orders, p.Commands, p.Queue, p.Logger)
}

type monitorParams struct {
	fx.In

	Orders   repository.OrderFeed
	Commands repository.CommandFeed
	Queue    *worker.PrintQueue
	Handler  *worker.CommandHandler
	Logger   *slog.Logger
}

func newMonitor(p monitorParams) *worker.Monitor {
	return worker.NewMonitor(p.Orders, p.Commands, p.Queue, p.Handler, worker.MonitorOptions{}, p.Logger)
}

type reporterParams struct {
	fx.In

	Config    *config.Config
	Printer   *printer.Manager
	Queue     *worker.PrintQueue
	Status    repository.StatusRepository
	Publisher *nats.Publisher
	Logger    *slog.Logger
}

func newStatusReporter(p reporterParams) *worker.StatusReporter {
	return worker.NewStatusReporter(p.Printer, p.Queue, statusSinks(p.Status, p.Publisher), p.Config.StatusInterval, p.Logger)
}

func statusSinks(status repository.StatusRepository, publisher *nats.Publisher) []worker.StatusSink {
	sinks := []worker.StatusSink{{Name: "store", Publish: status.SaveStatus}}
	if publisher.Enabled() {
		sinks = append(sinks, worker.StatusSink{Name: "nats", Publish: publisher.PublishStatus})
	}
	return sinks
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Printer    *printer.Manager
	Queue      *worker.PrintQueue
	Monitor    *worker.Monitor
	Reporter   *worker.StatusReporter
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	initialized := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting printerd", slog.String("addr", p.Server.Addr))
			go func() {
				defer close(initialized)
				p.Printer.Initialize(context.WithoutCancel(ctx))
			}()
			p.Monitor.Start(ctx)
			p.Reporter.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Monitor.Stop()
			p.Reporter.Stop()
			p.Queue.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			var errs []error
			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, err)
			}

			select {
			case <-initialized:
			case <-shutdownCtx.Done():
				p.Logger.Warn("printer initialization still running at shutdown")
			}
			if err := p.Printer.Disconnect(); err != nil {
				errs = append(errs, err)
			}
			p.Logger.Info("printerd stopped")
			return errors.Join(errs...)
		},
	})
}
