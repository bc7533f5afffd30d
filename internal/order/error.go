package order

import (
	"errors"
	"fmt"
)

var (
	// -- Checkout outcomes --
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCheckoutBusy      = errors.New("checkout is busy, please retry")
	ErrStorageFault      = errors.New("storage failure")

	// -- Resource State --
	ErrOrderNotFound = errors.New("order not found")

	// -- Validation & Input --
	ErrInvalidStatus = errors.New("invalid status")

	// -- Constants (External Systems) --
	PgCheckViolation       = "23514"
	PgLockNotAvailable     = "55P03"
	PgSerializationFailure = "40001"
	PgDeadlockDetected     = "40P01"
	PgQueryCanceled        = "57014"
)

// StockError lists every product whose stock could not cover the cart.
type StockError struct {
	ProductIDs []uint
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for products %v", e.ProductIDs)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
