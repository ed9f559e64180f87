package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/domain/repository"
	"github.com/polkiloo/printerd/internal/observability"
	"github.com/polkiloo/printerd/internal/receipt"
)

// ReceiptPrinter is the subset of the printer manager used by the queue.
type ReceiptPrinter interface {
	PrintReceipt(ctx context.Context, lines []string, bold []int) error
	TestPrint(ctx context.Context) error
}

// EventPublisher announces finished print jobs.
type EventPublisher interface {
	PublishPrintEvent(ctx context.Context, event model.PrintEvent) error
}

// QueueOptions tunes retries. Zero values fall back to defaults.
type QueueOptions struct {
	MaxRetries  int
	RetryDelays []time.Duration
	Cooldown    time.Duration
}

const (
	DefaultMaxRetries = 3
	DefaultCooldown   = 500 * time.Millisecond
)

// DefaultRetryDelays is the wait before retry n+1.
var DefaultRetryDelays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

func (o QueueOptions) withDefaults() QueueOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if len(o.RetryDelays) == 0 {
		o.RetryDelays = DefaultRetryDelays
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	return o
}

// scheduleFunc runs fn after d and returns a function that cancels it.
type scheduleFunc func(d time.Duration, fn func()) (stop func() bool)

func afterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

const persistTimeout = 5 * time.Second

// PrintQueue prints orders one at a time in arrival order. Failed jobs go
// back to the tail after a backoff until retries run out.
type PrintQueue struct {
	printer   ReceiptPrinter
	formatter *receipt.Formatter
	orders    repository.OrderRepository
	events    EventPublisher
	metrics   *observability.Metrics
	logger    *slog.Logger
	opts      QueueOptions

	mu        sync.Mutex
	jobs      []model.PrintJob
	draining  bool
	printed   map[string]struct{}
	total     int
	stopped   bool
	timers    map[int]func() bool
	nextTimer int

	// inflight serialises every call into the printer.
	inflight sync.Mutex

	after  scheduleFunc
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPrintQueue constructs an empty queue.
func NewPrintQueue(
	printer ReceiptPrinter,
	formatter *receipt.Formatter,
	orders repository.OrderRepository,
	events EventPublisher,
	metrics *observability.Metrics,
	opts QueueOptions,
	logger *slog.Logger,
) *PrintQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &PrintQueue{
		printer:   printer,
		formatter: formatter,
		orders:    orders,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		opts:      opts.withDefaults(),
		printed:   make(map[string]struct{}),
		timers:    make(map[int]func() bool),
		after:     afterFunc,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Enqueue adds order unless it was already printed by this process.
func (q *PrintQueue) Enqueue(order model.Order) bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	if _, done := q.printed[order.ID]; done {
		q.mu.Unlock()
		q.logger.Debug("order already printed, skipping", slog.String("order_id", order.ID))
		return false
	}
	q.jobs = append(q.jobs, model.PrintJob{Order: order})
	start := !q.draining
	size := len(q.jobs)
	q.mu.Unlock()

	q.logger.Info("order queued", slog.String("order_id", order.ID), slog.Int("queue_size", size))
	if start {
		q.spawn(q.drain)
	}
	return true
}

// PrintNow prints order immediately, bypassing the queue and its retries.
func (q *PrintQueue) PrintNow(ctx context.Context, order model.Order) error {
	if err := q.print(ctx, order); err != nil {
		return err
	}

	q.mu.Lock()
	q.printed[order.ID] = struct{}{}
	q.total++
	q.mu.Unlock()

	if !order.Printed {
		now := time.Now()
		q.persist(order.ID, model.PrintResult{Printed: true, PrintTimestamp: &now})
	}
	q.logger.Info("order reprinted", slog.String("order_id", order.ID))
	return nil
}

// TestPrint runs the printer diagnostic without racing queued jobs.
func (q *PrintQueue) TestPrint(ctx context.Context) error {
	q.inflight.Lock()
	defer q.inflight.Unlock()
	return q.printer.TestPrint(ctx)
}

// Stats reports queue length and receipts printed since start.
func (q *PrintQueue) Stats() model.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return model.QueueStats{QueueSize: len(q.jobs), TotalPrintedCount: q.total}
}

// Stop cancels pending retries and waits for the in-flight job.
func (q *PrintQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	for id, stop := range q.timers {
		stop()
		delete(q.timers, id)
	}
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *PrintQueue) drain() {
	q.mu.Lock()
	if q.draining || q.stopped || len(q.jobs) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	_, done := q.printed[job.Order.ID]
	q.mu.Unlock()

	var retry *model.PrintJob
	if done {
		q.logger.Debug("order printed while queued, skipping", slog.String("order_id", job.Order.ID))
	} else {
		retry = q.process(job)
	}

	q.mu.Lock()
	q.draining = false
	more := len(q.jobs) > 0
	q.mu.Unlock()

	// Retries are scheduled only once draining is clear so the timer never
	// races the finishing cycle.
	if retry != nil {
		next := *retry
		q.schedule(q.retryDelay(next.RetryCount-1), func() { q.requeue(next) })
	}
	if more {
		q.schedule(q.opts.Cooldown, q.drain)
	}
}

// process prints job and returns the follow-up job when a retry is due.
func (q *PrintQueue) process(job model.PrintJob) *model.PrintJob {
	err := q.print(q.ctx, job.Order)
	if err == nil {
		q.succeeded(job)
		return nil
	}
	if q.ctx.Err() != nil {
		q.logger.Info("print interrupted by shutdown",
			slog.String("order_id", job.Order.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if job.RetryCount < q.opts.MaxRetries {
		next := model.PrintJob{Order: job.Order, RetryCount: job.RetryCount + 1}
		q.logger.Warn("print failed, retrying",
			slog.String("order_id", job.Order.ID),
			slog.Int("attempt", next.RetryCount),
			slog.Duration("delay", q.retryDelay(job.RetryCount)),
			slog.String("error", err.Error()),
		)
		q.metrics.JobRetried(q.ctx, next.RetryCount)
		return &next
	}

	q.failed(job, err)
	return nil
}

func (q *PrintQueue) print(ctx context.Context, order model.Order) error {
	r := q.formatter.Format(order)

	q.inflight.Lock()
	defer q.inflight.Unlock()

	start := time.Now()
	err := q.printer.PrintReceipt(ctx, r.Lines, r.Bold)
	q.metrics.ObservePrint(ctx, time.Since(start), err)
	return err
}

func (q *PrintQueue) succeeded(job model.PrintJob) {
	q.mu.Lock()
	q.printed[job.Order.ID] = struct{}{}
	q.total++
	q.mu.Unlock()

	now := time.Now()
	q.persist(job.Order.ID, model.PrintResult{
		Printed:         true,
		PrintTimestamp:  &now,
		PrintRetryCount: job.RetryCount,
	})
	q.metrics.JobPrinted(q.ctx, job.RetryCount)
	q.publish(model.PrintEvent{
		EventType:  model.EventOrderPrinted,
		OccurredAt: now,
		OrderID:    job.Order.ID,
		RetryCount: job.RetryCount,
	})
	q.logger.Info("order printed", slog.String("order_id", job.Order.ID), slog.Int("retries", job.RetryCount))
}

func (q *PrintQueue) failed(job model.PrintJob, err error) {
	q.logger.Error("print failed, giving up",
		slog.String("order_id", job.Order.ID),
		slog.Int("retries", job.RetryCount),
		slog.String("error", err.Error()),
	)
	q.persist(job.Order.ID, model.PrintResult{
		Printed:         false,
		PrintRetryCount: job.RetryCount,
		PrintError:      err.Error(),
	})
	q.metrics.JobFailed(q.ctx)
	q.publish(model.PrintEvent{
		EventType:  model.EventOrderPrintFailed,
		OccurredAt: time.Now(),
		OrderID:    job.Order.ID,
		RetryCount: job.RetryCount,
		Error:      err.Error(),
	})
}

func (q *PrintQueue) requeue(job model.PrintJob) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	if _, done := q.printed[job.Order.ID]; done {
		q.mu.Unlock()
		return
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.drain()
}

func (q *PrintQueue) retryDelay(retryCount int) time.Duration {
	if retryCount < len(q.opts.RetryDelays) {
		return q.opts.RetryDelays[retryCount]
	}
	return q.opts.RetryDelays[len(q.opts.RetryDelays)-1]
}

// persist writes the outcome back. Store errors are logged, the printed
// cache already prevents duplicates in this process.
func (q *PrintQueue) persist(orderID string, result model.PrintResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(q.ctx), persistTimeout)
	defer cancel()
	if err := q.orders.UpdatePrintResult(ctx, orderID, result); err != nil {
		q.logger.Error("update print result failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
	}
}

func (q *PrintQueue) publish(event model.PrintEvent) {
	if q.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(q.ctx), persistTimeout)
	defer cancel()
	if err := q.events.PublishPrintEvent(ctx, event); err != nil {
		q.logger.Warn("publish print event failed", slog.String("order_id", event.OrderID), slog.String("error", err.Error()))
	}
}

func (q *PrintQueue) schedule(d time.Duration, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	id := q.nextTimer
	q.nextTimer++
	q.timers[id] = q.after(d, func() {
		q.mu.Lock()
		delete(q.timers, id)
		q.mu.Unlock()
		q.spawn(fn)
	})
}

func (q *PrintQueue) spawn(fn func()) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				q.logger.Error("print queue panic", slog.String("panic", fmt.Sprint(r)))
				q.mu.Lock()
				q.draining = false
				q.mu.Unlock()
			}
		}()
		fn()
	}()
}
