package dto

import (
	"time"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Service   string    `json:"service"`
	Printer   any       `json:"printer"`
	Timestamp time.Time `json:"timestamp"`
}

// DisconnectedPrinter stands in for the status before the manager is ready.
type DisconnectedPrinter struct {
	IsConnected bool `json:"isConnected"`
}

// ErrorResponse carries a human readable failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CommandRequest is the payload of POST /printer/commands.
type CommandRequest struct {
	CommandType string `json:"command_type"`
	OrderID     string `json:"order_id"`
}

// CommandResponse echoes the stored command.
type CommandResponse struct {
	ID        string            `json:"id"`
	Type      model.CommandType `json:"command_type"`
	OrderID   string            `json:"order_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
