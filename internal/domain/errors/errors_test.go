package errors

import (
	stdErrors "errors"
	"strings"
	"testing"
	"time"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"already processed", ErrAlreadyProcessed},
		{"printer not ready", ErrPrinterNotReady},
		{"unknown command", ErrUnknownCommand},
		{"invalid command", ErrInvalidCommand},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cause := stdErrors.New("boom")
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{"device not found", DeviceNotFoundError{Type: "usb", Device: "04b8:0202", Err: cause}, "usb printer 04b8:0202 not found"},
		{"connection", ConnectionError{Type: "serial", Err: cause}, "serial connection failed"},
		{"reconnect", ReconnectExhaustedError{Attempts: 3, Err: cause}, "after 3 attempts"},
		{"order not found", OrderNotFoundError{OrderID: "abc", Err: cause}, "order abc not found"},
		{"command", CommandProcessingError{CommandID: "c1", Type: "test", Err: cause}, "command c1 (test) failed"},
		{"subscription", SubscriptionError{Feed: "orders", Err: cause}, "orders subscription failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, cause) {
				t.Fatalf("expected %T to unwrap to cause", tc.err)
			}
			if !strings.Contains(tc.err.Error(), tc.msg) {
				t.Fatalf("expected %q to contain %q", tc.err.Error(), tc.msg)
			}
		})
	}
}

func TestPrintTimeoutErrorAs(t *testing.T) {
	wrapped := stdErrors.Join(stdErrors.New("print operation failed"), PrintTimeoutError{Timeout: 10 * time.Second})
	var timeout PrintTimeoutError
	if !stdErrors.As(wrapped, &timeout) {
		t.Fatal("expected timeout error to be extractable")
	}
	if timeout.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", timeout.Timeout)
	}
}
