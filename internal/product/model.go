package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    *string         `json:"category,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductInput is the create/replace payload. Price is required; Stock defaults to 0.
type ProductInput struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	Stock       *int             `json:"stock"`
}
