package model

import (
	"testing"
	"time"
)

func TestConstantValues(t *testing.T) {
	cases := []struct {
		name  string
		got   string
		value string
	}{
		{"reprint", string(CommandReprint), "reprint"},
		{"test", string(CommandTest), "test"},
		{"usb", string(ConnectionUSB), "usb"},
		{"serial", string(ConnectionSerial), "serial"},
		{"printed", string(EventOrderPrinted), "order.printed"},
		{"failed", string(EventOrderPrintFailed), "order.print_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
		})
	}
}

func TestPrinterCommandValid(t *testing.T) {
	cases := []struct {
		cmd  PrinterCommand
		want bool
	}{
		{PrinterCommand{Type: CommandReprint, OrderID: "o1"}, true},
		{PrinterCommand{Type: CommandReprint}, false},
		{PrinterCommand{Type: CommandTest}, true},
		{PrinterCommand{Type: "bogus"}, false},
	}
	for _, tc := range cases {
		if got := tc.cmd.Valid(); got != tc.want {
			t.Fatalf("Valid(%+v) = %v, want %v", tc.cmd, got, tc.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   any
		ok   bool
	}{
		{"time", want, true},
		{"pointer", &want, true},
		{"rfc3339", "2024-03-01T18:30:00Z", true},
		{"epoch millis", want.UnixMilli(), true},
		{"epoch float", float64(want.UnixMilli()), true},
		{"epoch string", "1709317800000", true},
		{"seconds object", map[string]any{"seconds": want.Unix(), "nanoseconds": int64(0)}, true},
		{"underscore object", map[string]any{"_seconds": float64(want.Unix())}, true},
		{"empty string", "", false},
		{"garbage", "yesterday", false},
		{"nil", nil, false},
		{"object without seconds", map[string]any{"foo": 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.in)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && !got.Equal(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}
