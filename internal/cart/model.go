package cart

import (
	"github.com/shopspring/decimal"
)

// CartLine is one cart_items row joined with the product's current price and stock.
type CartLine struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartItem struct {
	CartLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type AddItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

type AddItemResult struct {
	ID      uint `json:"id"`
	Created bool `json:"created"`
}
