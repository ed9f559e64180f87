package nats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/printerd/internal/config"
	"github.com/polkiloo/printerd/internal/domain/model"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	published []message
	err       error
	closed    bool
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, message{subject: subj, data: data})
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func useConn(t *testing.T, c *fakeConn) *string {
	t.Helper()
	var dialed string
	prev := connect
	t.Cleanup(func() { connect = prev })
	connect = func(url string, _ ...nats.Option) (conn, error) {
		dialed = url
		return c, nil
	}
	return &dialed
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher("", discardLogger())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.PublishPrintEvent(context.Background(), model.PrintEvent{OrderID: "a"}))
	assert.NoError(t, p.PublishStatus(context.Background(), model.StatusSnapshot{}))
	p.Close()
}

func TestPublishPrintEvent(t *testing.T) {
	c := &fakeConn{}
	dialed := useConn(t, c)

	p, err := NewPublisher("nats://broker:4222", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", *dialed)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.PublishPrintEvent(context.Background(), model.PrintEvent{
		EventType:  model.EventOrderPrintFailed,
		OccurredAt: at,
		OrderID:    "a",
		RetryCount: 3,
		Error:      "paper out",
	}))

	require.Len(t, c.published, 1)
	assert.Equal(t, SubjectPrintEvents, c.published[0].subject)

	var body map[string]any
	require.NoError(t, json.Unmarshal(c.published[0].data, &body))
	assert.Equal(t, "order.print_failed", body["event_type"])
	assert.Equal(t, "2024-03-01T12:00:00Z", body["occurred_at"])
	assert.Equal(t, "a", body["order_id"])
	assert.Equal(t, float64(3), body["retry_count"])
	assert.Equal(t, "paper out", body["error"])
}

func TestPublishStatus(t *testing.T) {
	c := &fakeConn{}
	useConn(t, c)
	p, err := NewPublisher("nats://broker:4222", discardLogger())
	require.NoError(t, err)

	require.NoError(t, p.PublishStatus(context.Background(), model.StatusSnapshot{Connected: true, ConnectionType: model.ConnectionUSB, QueueSize: 4}))
	require.Len(t, c.published, 1)
	assert.Equal(t, SubjectStatus, c.published[0].subject)
	assert.Contains(t, string(c.published[0].data), `"queue_size":4`)
}

func TestPublishErrors(t *testing.T) {
	c := &fakeConn{err: errors.New("slow consumer")}
	useConn(t, c)
	p, err := NewPublisher("nats://broker:4222", discardLogger())
	require.NoError(t, err)

	err = p.PublishPrintEvent(context.Background(), model.PrintEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish orders.print")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishStatus(ctx, model.StatusSnapshot{}), context.Canceled)
}

func TestConnectFailure(t *testing.T) {
	prev := connect
	t.Cleanup(func() { connect = prev })
	connect = func(string, ...nats.Option) (conn, error) { return nil, nats.ErrNoServers }

	_, err := NewPublisher("nats://nowhere:4222", discardLogger())
	assert.ErrorIs(t, err, nats.ErrNoServers)
}

func TestModuleClosesConnection(t *testing.T) {
	c := &fakeConn{}
	useConn(t, c)

	var p *Publisher
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(&config.Config{NATSURL: "nats://broker:4222"}),
		fx.Supply(discardLogger()),
		Module,
		fx.Populate(&p),
	)
	app.RequireStart().RequireStop()

	assert.True(t, p.Enabled())
	assert.True(t, c.closed)
}
