package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

const orderColumns = `id, created_at, COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
                   COALESCE(delivery_address, ''), items, COALESCE(notes, ''), total_amount::text,
                   printed, print_timestamp, print_retry_count, COALESCE(print_error, '')`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o     model.Order
		items []byte
		total string
	)
	err := row.Scan(&o.ID, &o.CreatedAt, &o.CustomerName, &o.CustomerPhone, &o.DeliveryAddress,
		&items, &o.Notes, &total, &o.Printed, &o.PrintTimestamp, &o.PrintRetryCount, &o.PrintError)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("decode total of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// UpdatePrintResult writes only the print fields. A nil timestamp keeps the
// stored one and an empty error clears the column.
func (r *orderRepository) UpdatePrintResult(ctx context.Context, id string, result model.PrintResult) error {
	const query = `UPDATE orders
                   SET printed=$2, print_timestamp=COALESCE($3, print_timestamp),
                       print_retry_count=$4, print_error=NULLIF($5, '')
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, result.Printed, result.PrintTimestamp, result.PrintRetryCount, result.PrintError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) recent(ctx context.Context, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type orderNotification struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// SubscribeOrders listens before reading the snapshot so no insert between
// the two is lost. Orders seen in both are filtered by the queue.
func (r *orderRepository) SubscribeOrders(ctx context.Context, limit int, handler func(model.OrderEvent)) error {
	conn, err := r.storage.listen(ctx, ordersChannel)
	if err != nil {
		return fmt.Errorf("listen orders: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	snapshot, err := r.recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("load recent orders: %w", err)
	}
	for i := len(snapshot) - 1; i >= 0; i-- {
		handler(model.OrderEvent{Type: model.OrderAdded, Order: snapshot[i]})
	}

	for {
		n, err := wait(ctx, conn)
		if err != nil {
			return err
		}

		var msg orderNotification
		if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
			r.storage.logger.Warn("malformed order notification", slog.String("payload", n.Payload), slog.String("error", err.Error()))
			continue
		}

		var eventType model.OrderEventType
		switch msg.Op {
		case "INSERT":
			eventType = model.OrderAdded
		case "UPDATE":
			eventType = model.OrderModified
		case "DELETE":
			handler(model.OrderEvent{Type: model.OrderRemoved, Order: model.Order{ID: msg.ID}})
			continue
		default:
			continue
		}

		order, err := r.fetch(ctx, msg.ID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			return fmt.Errorf("load order %s: %w", msg.ID, err)
		}
		handler(model.OrderEvent{Type: eventType, Order: *order})
	}
}

func (r *orderRepository) fetch(ctx context.Context, id string) (*model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.GetByID(ctx, id)
}
