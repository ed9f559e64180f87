package printer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/printerd/internal/domain/errors"
	"github.com/polkiloo/printerd/internal/domain/model"
)

// Options tunes connection handling. Zero values fall back to defaults.
type Options struct {
	PrintTimeout   time.Duration
	ResetDelay     time.Duration
	ReconnectDelay time.Duration
	BackoffBase    time.Duration
	MaxAttempts    int
}

const (
	DefaultPrintTimeout   = 10 * time.Second
	DefaultResetDelay     = 300 * time.Millisecond
	DefaultReconnectDelay = 500 * time.Millisecond
	DefaultBackoffBase    = 500 * time.Millisecond
	DefaultMaxAttempts    = 3
)

func (o Options) withDefaults() Options {
	if o.PrintTimeout <= 0 {
		o.PrintTimeout = DefaultPrintTimeout
	}
	if o.ResetDelay <= 0 {
		o.ResetDelay = DefaultResetDelay
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// Manager owns the single printer connection. Device I/O is serialised;
// Status reads a separate lock and never waits on the device.
type Manager struct {
	opener Opener
	opts   Options
	logger *slog.Logger

	io     sync.Mutex
	device Device

	mu    sync.RWMutex
	state model.PrinterState
	ready bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager constructs a disconnected manager.
func NewManager(opener Opener, opts Options, logger *slog.Logger) *Manager {
	m := &Manager{
		opener: opener,
		opts:   opts.withDefaults(),
		logger: logger,
		state:  model.StateDisconnected,
		now:    time.Now,
		sleep:  sleepContext,
	}
	return m
}

// Initialize makes the startup connection attempt. Failure is logged, the
// next print reconnects.
func (m *Manager) Initialize(ctx context.Context) {
	if err := m.Connect(ctx); err != nil {
		m.logger.Warn("printer not available at startup", slog.String("error", err.Error()))
	} else {
		m.logger.Info("printer connected", slog.String("type", string(m.opener.Type())))
	}
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
}

// Ready reports whether the startup connection attempt has finished.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Connect opens the device if not already connected.
func (m *Manager) Connect(ctx context.Context) error {
	m.io.Lock()
	defer m.io.Unlock()
	return m.connect(ctx)
}

// Reconnect drops the connection and retries with exponential backoff.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.io.Lock()
	defer m.io.Unlock()
	return m.reconnect(ctx)
}

// Disconnect closes the device. It is safe to call repeatedly.
func (m *Manager) Disconnect() error {
	m.io.Lock()
	defer m.io.Unlock()
	return m.disconnect()
}

// PrintReceipt writes one receipt and resets the connection afterwards.
func (m *Manager) PrintReceipt(ctx context.Context, lines []string, bold []int) error {
	payload, err := Encode(lines, bold)
	if err != nil {
		return fmt.Errorf("print operation failed: %w", err)
	}
	if err := m.print(ctx, payload); err != nil {
		return fmt.Errorf("print operation failed: %w", err)
	}
	return nil
}

// TestPrint prints a short diagnostic receipt.
func (m *Manager) TestPrint(ctx context.Context) error {
	now := m.now()
	lines := []string{
		"DRUCKERTEST",
		"------------------------------",
		"Verbindung: " + string(m.opener.Type()),
		"Zeit: " + now.Format("02.01.2006 15:04:05"),
		"Sonderzeichen: äöüß €",
		"Drucker bereit",
	}
	payload, err := Encode(lines, []int{0})
	if err != nil {
		return fmt.Errorf("test print failed: %w", err)
	}
	if err := m.print(ctx, payload); err != nil {
		return fmt.Errorf("test print failed: %w", err)
	}
	return nil
}

// Status returns the current connection view.
func (m *Manager) Status() model.PrinterStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.PrinterStatus{
		IsConnected: m.state == model.StateConnected || m.state == model.StatePrinting,
		Type:        m.opener.Type(),
		State:       m.state,
		Timestamp:   m.now(),
	}
}

func (m *Manager) print(ctx context.Context, payload []byte) error {
	m.io.Lock()
	defer m.io.Unlock()
	defer m.reset()

	if m.device == nil {
		if err := m.reconnect(ctx); err != nil {
			return err
		}
	}

	m.setState(model.StatePrinting)
	return m.write(ctx, payload)
}

func (m *Manager) write(ctx context.Context, payload []byte) error {
	dev := m.device
	done := make(chan error, 1)
	go func() {
		_, err := dev.Write(payload)
		if err == nil {
			if d, ok := dev.(drainer); ok {
				err = d.Drain()
			}
		}
		done <- err
	}()

	timer := time.NewTimer(m.opts.PrintTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write to printer: %w", err)
		}
		return nil
	case <-timer.C:
		return domainErrors.PrintTimeoutError{Timeout: m.opts.PrintTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reset lets the printer finish the cut and closes the handle.
func (m *Manager) reset() {
	if m.device != nil {
		m.setState(model.StateResetting)
		_ = m.sleep(context.Background(), m.opts.ResetDelay)
	}
	if err := m.disconnect(); err != nil {
		m.logger.Warn("printer close failed", slog.String("error", err.Error()))
	}
}

func (m *Manager) connect(ctx context.Context) error {
	if m.device != nil {
		return nil
	}
	m.setState(model.StateConnecting)
	dev, err := m.opener.Open(ctx)
	if err != nil {
		m.setState(model.StateDisconnected)
		return err
	}
	m.device = dev
	m.setState(model.StateConnected)
	return nil
}

func (m *Manager) reconnect(ctx context.Context) error {
	if err := m.disconnect(); err != nil {
		m.logger.Warn("printer close failed", slog.String("error", err.Error()))
	}
	if err := m.sleep(ctx, m.opts.ReconnectDelay); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < m.opts.MaxAttempts; attempt++ {
		if lastErr = m.connect(ctx); lastErr == nil {
			return nil
		}
		m.logger.Warn("printer connect attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()),
		)
		if attempt == m.opts.MaxAttempts-1 {
			break
		}
		if err := m.sleep(ctx, m.opts.BackoffBase<<attempt); err != nil {
			return err
		}
	}
	return domainErrors.ReconnectExhaustedError{Attempts: m.opts.MaxAttempts, Err: lastErr}
}

func (m *Manager) disconnect() error {
	dev := m.device
	m.device = nil
	m.setState(model.StateDisconnected)
	if dev == nil {
		return nil
	}
	return dev.Close()
}

func (m *Manager) setState(state model.PrinterState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
