package model

import "time"

// PrintEventType names outcomes published to the broker.
type PrintEventType string

const (
	EventOrderPrinted     PrintEventType = "order.printed"
	EventOrderPrintFailed PrintEventType = "order.print_failed"
)

// PrintEvent is the broker envelope for a finished print job.
type PrintEvent struct {
	EventType  PrintEventType `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	OrderID    string         `json:"order_id"`
	RetryCount int            `json:"retry_count"`
	Error      string         `json:"error,omitempty"`
}
