package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const (
	SubjectPrintEvents = "orders.print"
	SubjectStatus      = "printer.status"
)

type conn interface {
	Publish(subj string, data []byte) error
	Close()
}

var connect = func(url string, opts ...nats.Option) (conn, error) {
	return nats.Connect(url, opts...)
}

// Publisher sends print events and status heartbeats to NATS. With no URL
// configured every publish is a no-op.
type Publisher struct {
	conn   conn
	logger *slog.Logger
}

// NewPublisher connects to url, or returns a disabled publisher when url is empty.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		logger.Info("NATS publishing disabled")
		return &Publisher{logger: logger}, nil
	}

	c, err := connect(url,
		nats.Name("printerd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", slog.String("url", url))
	return &Publisher{conn: c, logger: logger}, nil
}

// Enabled reports whether a connection is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

// PublishPrintEvent implements worker.EventPublisher.
func (p *Publisher) PublishPrintEvent(ctx context.Context, event model.PrintEvent) error {
	return p.publish(ctx, SubjectPrintEvents, event)
}

// PublishStatus sends a status snapshot.
func (p *Publisher) PublishStatus(ctx context.Context, snapshot model.StatusSnapshot) error {
	return p.publish(ctx, SubjectStatus, snapshot)
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drops the connection.
func (p *Publisher) Close() {
	if p.Enabled() {
		p.conn.Close()
	}
}
