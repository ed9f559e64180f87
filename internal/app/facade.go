package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/domain/repository"
)

// PrinterState reports connection manager state.
type PrinterState interface {
	Status() model.PrinterStatus
	Ready() bool
}

// QueueState reports queue counters.
type QueueState interface {
	Stats() model.QueueStats
}

// MetricsReader collects metric totals.
type MetricsReader interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// PrinterFacade is the surface exposed over HTTP.
type PrinterFacade struct {
	printer  PrinterState
	queue    QueueState
	commands repository.CommandRepository
	metrics  MetricsReader
	now      func() time.Time
	newID    func() string
}

func NewPrinterFacade(printer PrinterState, queue QueueState, commands repository.CommandRepository, metrics MetricsReader) *PrinterFacade {
	return &PrinterFacade{
		printer:  printer,
		queue:    queue,
		commands: commands,
		metrics:  metrics,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (f *PrinterFacade) PrinterStatus() (model.PrinterStatus, bool) {
	if !f.printer.Ready() {
		return model.PrinterStatus{}, false
	}
	return f.printer.Status(), true
}

func (f *PrinterFacade) QueueStats() model.QueueStats {
	return f.queue.Stats()
}

func (f *PrinterFacade) Metrics(ctx context.Context) (map[string]int64, error) {
	if f.metrics == nil {
		return map[string]int64{}, nil
	}
	return f.metrics.Snapshot(ctx)
}

// SubmitCommand stores a new unprocessed command; the command feed picks it up.
func (f *PrinterFacade) SubmitCommand(ctx context.Context, cmdType model.CommandType, orderID string) (*model.PrinterCommand, error) {
	cmd := model.PrinterCommand{
		ID:        f.newID(),
		Type:      cmdType,
		OrderID:   orderID,
		CreatedAt: f.now().UTC(),
	}
	switch cmdType {
	case model.CommandReprint, model.CommandTest:
	default:
		return nil, fmt.Errorf("%w: %q", domainErrors.ErrUnknownCommand, cmdType)
	}
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: %s requires an order id", domainErrors.ErrInvalidCommand, cmdType)
	}
	if cmdType == model.CommandTest {
		cmd.OrderID = ""
	}
	if err := f.commands.Create(ctx, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}
