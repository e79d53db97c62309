package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrLimitExceeded      = errors.New("cart line limit exceeded")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInUse              = errors.New("resource is referenced by other records")
	ErrPayment            = errors.New("payment gateway error")

	// ErrOutOfRange is reported when a cart line update leaves the allowed quantity bounds.
	ErrOutOfRange = fmt.Errorf("%w: quantity out of range", ErrInvalidInput)
)

// PaymentError carries failure details reported by the payment gateway.
type PaymentError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *PaymentError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("payment %s failed: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("payment %s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("payment %s failed", e.Op)
	}
}

// Is reports every PaymentError as ErrPayment.
func (e *PaymentError) Is(target error) bool {
	return target == ErrPayment
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
