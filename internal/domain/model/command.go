package model

import "time"

// CommandType identifies operator requests sent to the print service.
type CommandType string

const (
	CommandReprint CommandType = "reprint"
	CommandTest    CommandType = "test"
)

// PrinterCommand is an operator request. Processed only ever goes false to true.
type PrinterCommand struct {
	ID          string      `json:"id" bson:"_id"`
	Type        CommandType `json:"command_type" bson:"command_type"`
	OrderID     string      `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Processed   bool        `json:"processed" bson:"processed"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

// Valid reports whether the command carries what its type needs.
func (c PrinterCommand) Valid() bool {
	switch c.Type {
	case CommandReprint:
		return c.OrderID != ""
	case CommandTest:
		return true
	default:
		return false
	}
}
