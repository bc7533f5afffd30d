package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInUse    = errors.New("product is referenced by existing orders")

	ErrNameRequired  = errors.New("name is required")
	ErrPriceRequired = errors.New("price is required")
	ErrInvalidPrice  = errors.New("price must not be negative")
	ErrInvalidStock  = errors.New("stock must not be negative")

	PgForeignKeyViolation = "23503"
)
