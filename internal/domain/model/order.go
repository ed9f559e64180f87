package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order describes a customer order as written by the ordering website.
type Order struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	Items           []OrderItem     `json:"items"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Printed         bool            `json:"printed"`
	PrintTimestamp  *time.Time      `json:"print_timestamp,omitempty"`
	PrintRetryCount int             `json:"print_retry_count"`
	PrintError      string          `json:"print_error,omitempty"`
}

// OrderItem is one receipt line. Empty option fields are not printed.
type OrderItem struct {
	Quantity            int             `json:"quantity"`
	MenuItemNumber      int             `json:"menuItemNumber"`
	Name                string          `json:"name"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	SelectedSize        string          `json:"selectedSize,omitempty"`
	SelectedPastaType   string          `json:"selectedPastaType,omitempty"`
	SelectedSauce       string          `json:"selectedSauce,omitempty"`
	SelectedSideDish    string          `json:"selectedSideDish,omitempty"`
	SelectedIngredients []string        `json:"selectedIngredients,omitempty"`
	SelectedExtras      []string        `json:"selectedExtras,omitempty"`
	SelectedExclusions  []string        `json:"selectedExclusions,omitempty"`
}

// PrintResult is the partial update written back after a job finishes.
type PrintResult struct {
	Printed         bool
	PrintTimestamp  *time.Time
	PrintRetryCount int
	PrintError      string
}

// PrintJob is a queued order together with the retries already consumed.
type PrintJob struct {
	Order      Order
	RetryCount int
}

// OrderEventType classifies live feed changes.
type OrderEventType string

const (
	OrderAdded    OrderEventType = "added"
	OrderModified OrderEventType = "modified"
	OrderRemoved  OrderEventType = "removed"
)

// OrderEvent is emitted by an order feed for every observed change.
type OrderEvent struct {
	Type  OrderEventType
	Order Order
}
