package auctionerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNoBids       = errors.New("no bids found for item")
	ErrUserNoBids   = errors.New("user has not placed any bids")
	ErrUserExists   = errors.New("username or email already registered")

	// ErrConflict reports a lost optimistic write. Stores retry on it; it should not reach callers.
	ErrConflict = errors.New("concurrent update conflict")
)

// business logic errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrAuctionClosed      = errors.New("auction has already ended")
	ErrAuctionNotStarted  = errors.New("auction has not started yet")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// BidTooLowError carries the minimum a bid had to exceed. It matches ErrBidTooLow with errors.Is.
type BidTooLowError struct {
	MinBid decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be greater than %s", e.MinBid.String())
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

// Validationf builds an ErrValidation wrapping error with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
