package cart

import "errors"

var (
	// -- Validation & Input --
	ErrProductRequired = errors.New("product_id is required")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// -- Resource State --
	ErrCartItemNotFound = errors.New("cart item not found")

	// -- Database & Operation Failures --
	ErrFailedGetCart   = errors.New("failed to get cart")
	ErrFailedAddItem   = errors.New("failed to add cart item")
	ErrFailedClearCart = errors.New("failed to clear cart")

	// -- Constants (External Systems) --
	PgForeignKeyViolation = "23503"
)
