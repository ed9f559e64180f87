package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// listener is the part of a dedicated connection needed for LISTEN.
type listener interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

var newListener = func(ctx context.Context, dsn string) (listener, error) {
	return pgx.Connect(ctx, dsn)
}

// listen opens a connection subscribed to channel. The caller closes it.
func (s *Storage) listen(ctx context.Context, channel string) (listener, error) {
	conn, err := newListener(ctx, s.dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return conn, nil
}

// wait blocks for the next notification. A cancelled ctx is reported as
// ctx.Err() rather than the driver error.
func wait(ctx context.Context, conn listener) (*pgconn.Notification, error) {
	n, err := conn.WaitForNotification(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return n, nil
}
