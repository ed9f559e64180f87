package repository

import (
	"context"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	UpdatePrintResult(ctx context.Context, id string, result model.PrintResult) error
}

// OrderFeed streams order changes. SubscribeOrders first emits the most
// recent limit orders oldest first as added events, then live changes, and
// blocks until ctx is done or the feed breaks.
type OrderFeed interface {
	SubscribeOrders(ctx context.Context, limit int, handler func(model.OrderEvent)) error
}
