package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType is a read-only view of a ticket type configuration.
type TicketType struct {
	ID       uuid.UUID       `json:"id"`
	EventID  uuid.UUID       `json:"eventId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Active   bool            `json:"active"`
}

// Free reports whether the ticket type is given away at no charge.
func (t TicketType) Free() bool {
	return t.Price.IsZero()
}

// LineItem is one requested ticket type and quantity.
type LineItem struct {
	TicketTypeID uuid.UUID `json:"ticketTypeId"`
	Quantity     int       `json:"quantity"`
}

// LineStatus describes how a line item was resolved.
type LineStatus string

const (
	LinePriced     LineStatus = "priced"
	LineFree       LineStatus = "free"
	LineUnresolved LineStatus = "unresolved"
	LineInvalid    LineStatus = "invalid"
)

// LineResolution reports the outcome for a single requested line item.
type LineResolution struct {
	TicketTypeID uuid.UUID
	Quantity     int
	Status       LineStatus
	UnitPrice    decimal.Decimal
	Amount       decimal.Decimal
}

// Subtotal is the ticket portion of an order before fees.
type Subtotal struct {
	Amount      decimal.Decimal
	PaidTickets int
	Currency    string
	Lines       []LineResolution
}

// TicketTypeFinder resolves ticket type configuration by id.
type TicketTypeFinder interface {
	FindTicketTypeByID(ctx context.Context, id uuid.UUID) (TicketType, bool, error)
}

// ComputeSubtotal walks items in order and accumulates the ticket subtotal and the paid
// ticket count. Unknown ticket types, ticket types of another event and non-positive
// quantities are skipped and reported in Lines. Free ticket types contribute nothing.
// Paid line items must share one currency.
func ComputeSubtotal(ctx context.Context, finder TicketTypeFinder, eventID uuid.UUID, items []LineItem) (Subtotal, error) {
	out := Subtotal{Amount: zeroAmount, Lines: make([]LineResolution, 0, len(items))}
	for _, item := range items {
		line := LineResolution{TicketTypeID: item.TicketTypeID, Quantity: item.Quantity, UnitPrice: zeroAmount, Amount: zeroAmount}
		if item.Quantity <= 0 {
			line.Status = LineInvalid
			out.Lines = append(out.Lines, line)
			continue
		}
		tt, ok, err := finder.FindTicketTypeByID(ctx, item.TicketTypeID)
		if err != nil {
			return Subtotal{}, fmt.Errorf("find ticket type %s: %w", item.TicketTypeID, err)
		}
		if !ok || (tt.EventID != uuid.Nil && tt.EventID != eventID) {
			line.Status = LineUnresolved
			out.Lines = append(out.Lines, line)
			continue
		}
		line.UnitPrice = RoundHalfUp(tt.Price)
		if tt.Free() {
			line.Status = LineFree
			out.Lines = append(out.Lines, line)
			continue
		}
		currency := strings.ToUpper(strings.TrimSpace(tt.Currency))
		if out.Currency != "" && currency != out.Currency {
			return Subtotal{}, &CurrencyMismatchError{Expected: out.Currency, Got: currency, TicketTypeID: tt.ID}
		}
		out.Currency = currency
		line.Status = LinePriced
		amount := tt.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line.Amount = RoundHalfUp(amount)
		out.Amount = out.Amount.Add(amount)
		out.PaidTickets += item.Quantity
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}
