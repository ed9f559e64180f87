package repository

import (
	"context"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// CommandRepository persists operator commands.
type CommandRepository interface {
	Create(ctx context.Context, cmd *model.PrinterCommand) error
	// MarkProcessed flips processed to true once. A second call returns
	// errors.ErrAlreadyProcessed.
	MarkProcessed(ctx context.Context, id string) error
}

// CommandFeed emits unprocessed commands, existing ones first.
type CommandFeed interface {
	SubscribeCommands(ctx context.Context, handler func(model.PrinterCommand)) error
}
