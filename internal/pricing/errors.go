package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidEvent is returned when the event id does not resolve.
	ErrInvalidEvent = errors.New("pricing: invalid event")
	// ErrCurrencyMismatch is returned when paid line items are priced in different currencies.
	ErrCurrencyMismatch = errors.New("pricing: currency mismatch")
)

// InvalidEventError carries the event id that failed to resolve.
type InvalidEventError struct {
	EventID uuid.UUID
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("pricing: event %s not found", e.EventID)
}

// Is lets errors.Is match ErrInvalidEvent.
func (e *InvalidEventError) Is(target error) bool {
	return target == ErrInvalidEvent
}

// CurrencyMismatchError describes the line item that broke the single-currency rule.
type CurrencyMismatchError struct {
	Expected     string
	Got          string
	TicketTypeID uuid.UUID
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("pricing: ticket type %s is priced in %s, order is in %s", e.TicketTypeID, e.Got, e.Expected)
}

// Is lets errors.Is match ErrCurrencyMismatch.
func (e *CurrencyMismatchError) Is(target error) bool {
	return target == ErrCurrencyMismatch
}
