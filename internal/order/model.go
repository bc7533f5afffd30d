package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              uint            `json:"id"`
	UserID          uint            `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress *string         `json:"shipping_address,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `json:"items,omitempty"`
}

// OrderItem carries the price captured at checkout. Name, Description and
// ImageURL are only populated when reading an order's detail.
type OrderItem struct {
	ID          uint            `json:"id"`
	OrderID     uint            `json:"order_id"`
	ProductID   uint            `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type PlaceOrderInput struct {
	ShippingAddress *string `json:"shipping_address"`
}

type PlaceOrderResult struct {
	OrderID     uint
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

type UpdateStatusInput struct {
	Status Status `json:"status"`
}
