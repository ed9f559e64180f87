package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

const commandColumns = `id, command_type, COALESCE(order_id, ''), processed, processed_at, created_at`

func scanCommand(row pgx.Row) (*model.PrinterCommand, error) {
	var c model.PrinterCommand
	if err := row.Scan(&c.ID, &c.Type, &c.OrderID, &c.Processed, &c.ProcessedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commandRepository) Create(ctx context.Context, cmd *model.PrinterCommand) error {
	const query = `INSERT INTO printer_commands (id, command_type, order_id, processed, created_at)
                   VALUES ($1, $2, NULLIF($3, ''), FALSE, $4)`
	if _, err := r.storage.pool.Exec(ctx, query, cmd.ID, string(cmd.Type), cmd.OrderID, cmd.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *commandRepository) MarkProcessed(ctx context.Context, id string) error {
	const query = `UPDATE printer_commands SET processed=TRUE, processed_at=NOW() WHERE id=$1 AND processed=FALSE`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *commandRepository) get(ctx context.Context, id string) (*model.PrinterCommand, error) {
	const query = `SELECT ` + commandColumns + ` FROM printer_commands WHERE id=$1`
	cmd, err := scanCommand(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return cmd, nil
}

func (r *commandRepository) pending(ctx context.Context) ([]model.PrinterCommand, error) {
	const query = `SELECT ` + commandColumns + ` FROM printer_commands WHERE processed=FALSE ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PrinterCommand
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SubscribeCommands replays unprocessed commands and then follows inserts.
func (r *commandRepository) SubscribeCommands(ctx context.Context, handler func(model.PrinterCommand)) error {
	conn, err := r.storage.listen(ctx, commandsChannel)
	if err != nil {
		return fmt.Errorf("listen commands: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	pending, err := r.pending(ctx)
	if err != nil {
		return fmt.Errorf("load pending commands: %w", err)
	}
	for _, cmd := range pending {
		handler(cmd)
	}

	for {
		n, err := wait(ctx, conn)
		if err != nil {
			return err
		}
		cmd, err := r.get(ctx, n.Payload)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			return fmt.Errorf("load command %s: %w", n.Payload, err)
		}
		if !cmd.Processed {
			handler(*cmd)
		}
	}
}
