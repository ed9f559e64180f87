package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// PrintCall captures one receipt sent to ReceiptPrinterStub.
type PrintCall struct {
	Lines []string
	Bold  []int
}

// ReceiptPrinterStub records receipts and tracks concurrent calls.
type ReceiptPrinterStub struct {
	PrintFn func(context.Context, []string, []int) error
	TestFn  func(context.Context) error

	active    int32
	maxActive int32
	tests     int32

	mu    sync.Mutex
	Calls []PrintCall
}

// PrintReceipt records the call and delegates to PrintFn.
func (s *ReceiptPrinterStub) PrintReceipt(ctx context.Context, lines []string, bold []int) error {
	s.enter()
	defer atomic.AddInt32(&s.active, -1)

	s.mu.Lock()
	s.Calls = append(s.Calls, PrintCall{Lines: lines, Bold: bold})
	s.mu.Unlock()

	if s.PrintFn != nil {
		return s.PrintFn(ctx, lines, bold)
	}
	return nil
}

// TestPrint counts diagnostics and delegates to TestFn.
func (s *ReceiptPrinterStub) TestPrint(ctx context.Context) error {
	s.enter()
	defer atomic.AddInt32(&s.active, -1)
	atomic.AddInt32(&s.tests, 1)
	if s.TestFn != nil {
		return s.TestFn(ctx)
	}
	return nil
}

func (s *ReceiptPrinterStub) enter() {
	n := atomic.AddInt32(&s.active, 1)
	for {
		peak := atomic.LoadInt32(&s.maxActive)
		if n <= peak || atomic.CompareAndSwapInt32(&s.maxActive, peak, n) {
			return
		}
	}
}

// PrintCount returns how many receipts were sent.
func (s *ReceiptPrinterStub) PrintCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// TestCount returns how many diagnostics ran.
func (s *ReceiptPrinterStub) TestCount() int { return int(atomic.LoadInt32(&s.tests)) }

// MaxConcurrent reports the highest number of overlapping printer calls.
func (s *ReceiptPrinterStub) MaxConcurrent() int { return int(atomic.LoadInt32(&s.maxActive)) }

// EventPublisherStub collects published print events.
type EventPublisherStub struct {
	Err error

	mu     sync.Mutex
	Events []model.PrintEvent
}

// PublishPrintEvent records event.
func (s *EventPublisherStub) PublishPrintEvent(ctx context.Context, event model.PrintEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return s.Err
}

// Published returns a snapshot of recorded events.
func (s *EventPublisherStub) Published() []model.PrintEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PrintEvent(nil), s.Events...)
}

// PrinterFacadeStub provides controllable behaviour for HTTP handlers.
type PrinterFacadeStub struct {
	StatusFn  func() (model.PrinterStatus, bool)
	StatsFn   func() model.QueueStats
	SubmitFn  func(context.Context, model.CommandType, string) (*model.PrinterCommand, error)
	MetricsFn func(context.Context) (map[string]int64, error)
}

// PrinterStatus returns a connected USB printer unless overridden.
func (s PrinterFacadeStub) PrinterStatus() (model.PrinterStatus, bool) {
	if s.StatusFn != nil {
		return s.StatusFn()
	}
	return model.PrinterStatus{
		IsConnected: true,
		Type:        model.ConnectionUSB,
		State:       model.StateConnected,
		Timestamp:   time.Unix(0, 0).UTC(),
	}, true
}

// QueueStats returns configured stats.
func (s PrinterFacadeStub) QueueStats() model.QueueStats {
	if s.StatsFn != nil {
		return s.StatsFn()
	}
	return model.QueueStats{QueueSize: 2, TotalPrintedCount: 7}
}

// SubmitCommand echoes a command built from the arguments.
func (s PrinterFacadeStub) SubmitCommand(ctx context.Context, cmdType model.CommandType, orderID string) (*model.PrinterCommand, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, cmdType, orderID)
	}
	return &model.PrinterCommand{ID: "cmd-1", Type: cmdType, OrderID: orderID, CreatedAt: time.Unix(0, 0).UTC()}, nil
}

// Metrics returns configured counters.
func (s PrinterFacadeStub) Metrics(ctx context.Context) (map[string]int64, error) {
	if s.MetricsFn != nil {
		return s.MetricsFn(ctx)
	}
	return map[string]int64{"printerd.jobs.printed": 3}, nil
}
