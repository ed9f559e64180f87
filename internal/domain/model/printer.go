package model

import "time"

// ConnectionType is the physical link to the printer.
type ConnectionType string

const (
	ConnectionUSB    ConnectionType = "usb"
	ConnectionSerial ConnectionType = "serial"
)

// PrinterState is the connection manager state.
type PrinterState string

const (
	StateDisconnected PrinterState = "disconnected"
	StateConnecting   PrinterState = "connecting"
	StateConnected    PrinterState = "connected"
	StatePrinting     PrinterState = "printing"
	StateResetting    PrinterState = "resetting"
)

// PrinterStatus is the manager view exposed over HTTP.
type PrinterStatus struct {
	IsConnected bool           `json:"isConnected"`
	Type        ConnectionType `json:"type"`
	State       PrinterState   `json:"state"`
	Timestamp   time.Time      `json:"timestamp"`
}

// QueueStats summarises the print queue.
type QueueStats struct {
	QueueSize         int `json:"queue_size"`
	TotalPrintedCount int `json:"total_printed_count"`
}

// StatusSnapshot is the periodic heartbeat document.
type StatusSnapshot struct {
	Connected         bool           `json:"connected" bson:"connected"`
	ConnectionType    ConnectionType `json:"connection_type" bson:"connection_type"`
	LastUpdate        time.Time      `json:"last_update" bson:"last_update"`
	QueueSize         int            `json:"queue_size" bson:"queue_size"`
	TotalPrintedCount int            `json:"total_printed_count" bson:"total_printed_count"`
}
