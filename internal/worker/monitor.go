package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/domain/repository"
)

const (
	DefaultResubscribeDelay = 5 * time.Second
	DefaultSnapshotLimit    = 100
)

// OrderEnqueuer receives new orders from the feed.
type OrderEnqueuer interface {
	Enqueue(order model.Order) bool
}

// CommandProcessor handles one operator command.
type CommandProcessor interface {
	Handle(ctx context.Context, cmd model.PrinterCommand) error
}

// MonitorOptions tunes feed subscriptions.
type MonitorOptions struct {
	ResubscribeDelay time.Duration
	SnapshotLimit    int
}

var errFeedClosed = errors.New("feed closed")

// Monitor keeps the order and command subscriptions alive and routes their
// events into the print queue.
type Monitor struct {
	orders   repository.OrderFeed
	commands repository.CommandFeed
	queue    OrderEnqueuer
	handler  CommandProcessor
	opts     MonitorOptions
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor constructs a monitor.
func NewMonitor(orders repository.OrderFeed, commands repository.CommandFeed, queue OrderEnqueuer, handler CommandProcessor, opts MonitorOptions, logger *slog.Logger) *Monitor {
	if opts.ResubscribeDelay <= 0 {
		opts.ResubscribeDelay = DefaultResubscribeDelay
	}
	if opts.SnapshotLimit <= 0 {
		opts.SnapshotLimit = DefaultSnapshotLimit
	}
	return &Monitor{
		orders:   orders,
		commands: commands,
		queue:    queue,
		handler:  handler,
		opts:     opts,
		logger:   logger,
	}
}

// Start launches both subscriptions.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel

	m.wg.Add(2)
	go m.run(runCtx, "orders", func(ctx context.Context) error {
		return m.orders.SubscribeOrders(ctx, m.opts.SnapshotLimit, m.onOrderEvent)
	})
	go m.run(runCtx, "commands", func(ctx context.Context) error {
		return m.commands.SubscribeCommands(ctx, func(cmd model.PrinterCommand) {
			m.onCommand(ctx, cmd)
		})
	})
}

// Stop cancels the subscriptions and waits for them to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Monitor) run(ctx context.Context, feed string, subscribe func(context.Context) error) {
	defer m.wg.Done()
	for {
		err := m.subscribe(ctx, subscribe)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errFeedClosed
		}
		m.logger.Error("subscription lost",
			slog.String("error", domainErrors.SubscriptionError{Feed: feed, Err: err}.Error()),
			slog.Duration("retry_in", m.opts.ResubscribeDelay),
		)

		timer := time.NewTimer(m.opts.ResubscribeDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		m.logger.Info("resubscribing", slog.String("feed", feed))
	}
}

func (m *Monitor) subscribe(ctx context.Context, subscribe func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return subscribe(ctx)
}

func (m *Monitor) onOrderEvent(ev model.OrderEvent) {
	if ev.Type != model.OrderAdded || ev.Order.Printed {
		return
	}
	m.queue.Enqueue(ev.Order)
}

func (m *Monitor) onCommand(ctx context.Context, cmd model.PrinterCommand) {
	if err := m.handler.Handle(ctx, cmd); err != nil {
		m.logger.Error("printer command failed",
			slog.String("command_id", cmd.ID),
			slog.String("command_type", string(cmd.Type)),
			slog.String("error", err.Error()),
		)
	}
}
