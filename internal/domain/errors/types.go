package errors

import (
	"fmt"
	"time"
)

// DeviceNotFoundError is returned when the configured printer is not attached.
type DeviceNotFoundError struct {
	Type   string
	Device string
	Err    error
}

func (e DeviceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s printer %s not found: %v", e.Type, e.Device, e.Err)
	}
	return fmt.Sprintf("%s printer %s not found", e.Type, e.Device)
}

func (e DeviceNotFoundError) Unwrap() error { return e.Err }

// ConnectionError wraps failures while opening or claiming a device.
type ConnectionError struct {
	Type string
	Err  error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Type, e.Err)
}

func (e ConnectionError) Unwrap() error { return e.Err }

// PrintTimeoutError signals that a device write did not finish in time.
type PrintTimeoutError struct {
	Timeout time.Duration
}

func (e PrintTimeoutError) Error() string {
	return fmt.Sprintf("print timed out after %s", e.Timeout)
}

// ReconnectExhaustedError is returned when every reconnect attempt failed.
type ReconnectExhaustedError struct {
	Attempts int
	Err      error
}

func (e ReconnectExhaustedError) Error() string {
	return fmt.Sprintf("reconnect failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e ReconnectExhaustedError) Unwrap() error { return e.Err }

// OrderNotFoundError is returned when a reprint references an unknown order.
type OrderNotFoundError struct {
	OrderID string
	Err     error
}

func (e OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found: %v", e.OrderID, e.Err)
}

func (e OrderNotFoundError) Unwrap() error { return e.Err }

// CommandProcessingError describes a command that was handled but failed.
type CommandProcessingError struct {
	CommandID string
	Type      string
	Err       error
}

func (e CommandProcessingError) Error() string {
	return fmt.Sprintf("command %s (%s) failed: %v", e.CommandID, e.Type, e.Err)
}

func (e CommandProcessingError) Unwrap() error { return e.Err }

// SubscriptionError reports a broken live feed.
type SubscriptionError struct {
	Feed string
	Err  error
}

func (e SubscriptionError) Error() string {
	return fmt.Sprintf("%s subscription failed: %v", e.Feed, e.Err)
}

func (e SubscriptionError) Unwrap() error { return e.Err }
