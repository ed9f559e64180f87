package handlers

import (
	"context"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// StatusFacade exposes printer and queue state.
type StatusFacade interface {
	// PrinterStatus returns the manager status and whether the initial
	// connection attempt has finished.
	PrinterStatus() (model.PrinterStatus, bool)
	QueueStats() model.QueueStats
	Metrics(ctx context.Context) (map[string]int64, error)
}

// CommandFacade accepts operator commands.
type CommandFacade interface {
	SubmitCommand(ctx context.Context, cmdType model.CommandType, orderID string) (*model.PrinterCommand, error)
}

// PrinterFacade aggregates the operations used across handlers.
type PrinterFacade interface {
	StatusFacade
	CommandFacade
}
