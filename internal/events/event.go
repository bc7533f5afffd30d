package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPlaced is emitted once per committed checkout.
type OrderPlaced struct {
	EventID     string            `json:"event_id"`
	Type        string            `json:"type"`
	OrderID     uint              `json:"order_id"`
	UserID      uint              `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedItem `json:"items"`
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	RequestID   string            `json:"request_id,omitempty"`
}
