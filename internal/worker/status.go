package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const (
	DefaultStatusInterval = 10 * time.Second
	statusPublishTimeout  = 5 * time.Second
)

// StatusSource exposes the printer connection view.
type StatusSource interface {
	Status() model.PrinterStatus
}

// QueueStatsSource exposes queue counters.
type QueueStatsSource interface {
	Stats() model.QueueStats
}

// StatusSink receives status snapshots.
type StatusSink struct {
	Name    string
	Publish func(ctx context.Context, snapshot model.StatusSnapshot) error
}

// StatusReporter publishes a status snapshot on a fixed interval. Sink
// failures are logged and never stop the reporter.
type StatusReporter struct {
	printer  StatusSource
	queue    QueueStatsSource
	sinks    []StatusSink
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusReporter constructs a reporter.
func NewStatusReporter(printer StatusSource, queue QueueStatsSource, sinks []StatusSink, interval time.Duration, logger *slog.Logger) *StatusReporter {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &StatusReporter{
		printer:  printer,
		queue:    queue,
		sinks:    sinks,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start publishes immediately and then on every tick.
func (r *StatusReporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(runCtx)
}

// Stop halts reporting.
func (r *StatusReporter) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *StatusReporter) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Report(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Report(ctx)
		}
	}
}

// Snapshot builds the current status document.
func (r *StatusReporter) Snapshot() model.StatusSnapshot {
	status := r.printer.Status()
	stats := r.queue.Stats()
	return model.StatusSnapshot{
		Connected:         status.IsConnected,
		ConnectionType:    status.Type,
		LastUpdate:        r.now(),
		QueueSize:         stats.QueueSize,
		TotalPrintedCount: stats.TotalPrintedCount,
	}
}

// Report publishes one snapshot to every sink.
func (r *StatusReporter) Report(ctx context.Context) {
	snapshot := r.Snapshot()
	for _, sink := range r.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, statusPublishTimeout)
		if err := sink.Publish(sinkCtx, snapshot); err != nil {
			r.logger.Warn("status publish failed", slog.String("sink", sink.Name), slog.String("error", err.Error()))
		}
		cancel()
	}
}
