package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
	"github.com/polkiloo/printerd/internal/domain/repository"
)

// DirectPrinter prints outside the queue's retry bookkeeping.
type DirectPrinter interface {
	PrintNow(ctx context.Context, order model.Order) error
	TestPrint(ctx context.Context) error
}

// CommandHandler executes reprint and test commands.
type CommandHandler struct {
	orders   repository.OrderRepository
	commands repository.CommandRepository
	printer  DirectPrinter
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewCommandHandler constructs a command handler.
func NewCommandHandler(orders repository.OrderRepository, commands repository.CommandRepository, printer DirectPrinter, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		orders:   orders,
		commands: commands,
		printer:  printer,
		logger:   logger,
		seen:     make(map[string]struct{}),
	}
}

// Handle runs cmd once. A reprint whose order cannot be loaded is left
// unprocessed; every other outcome marks the command processed.
func (h *CommandHandler) Handle(ctx context.Context, cmd model.PrinterCommand) error {
	if cmd.Processed || !h.claim(cmd.ID) {
		return nil
	}

	var runErr error
	switch cmd.Type {
	case model.CommandReprint:
		order, err := h.orders.GetByID(ctx, cmd.OrderID)
		if err != nil {
			h.release(cmd.ID)
			return domainErrors.OrderNotFoundError{OrderID: cmd.OrderID, Err: err}
		}
		if err := h.printer.PrintNow(ctx, *order); err != nil {
			runErr = domainErrors.CommandProcessingError{CommandID: cmd.ID, Type: string(cmd.Type), Err: err}
		}
	case model.CommandTest:
		if err := h.printer.TestPrint(ctx); err != nil {
			runErr = domainErrors.CommandProcessingError{CommandID: cmd.ID, Type: string(cmd.Type), Err: err}
		}
	default:
		runErr = domainErrors.CommandProcessingError{CommandID: cmd.ID, Type: string(cmd.Type), Err: domainErrors.ErrUnknownCommand}
	}

	if err := h.commands.MarkProcessed(ctx, cmd.ID); err != nil && !errors.Is(err, domainErrors.ErrAlreadyProcessed) {
		runErr = errors.Join(runErr, fmt.Errorf("mark command %s processed: %w", cmd.ID, err))
	}

	if runErr == nil {
		h.logger.Info("printer command processed", slog.String("command_id", cmd.ID), slog.String("command_type", string(cmd.Type)))
	}
	return runErr
}

// claim guards against the same command arriving from the snapshot and the
// live feed.
func (h *CommandHandler) claim(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seen[id]; ok {
		return false
	}
	h.seen[id] = struct{}{}
	return true
}

func (h *CommandHandler) release(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.seen, id)
}
