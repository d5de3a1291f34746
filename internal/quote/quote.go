// Package quote records the totals shown to buyers so settlement can be reconciled
// against what was quoted.
package quote

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-tiket/internal/pricing"
)

// Line is the persisted form of a resolved line item.
type Line struct {
	TicketTypeID uuid.UUID `json:"ticketTypeId"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	Amount       string    `json:"amount"`
}

// Quote is an immutable record of one rendered order total.
type Quote struct {
	ID                 uuid.UUID `json:"id"`
	EventID            uuid.UUID `json:"eventId"`
	Currency           string    `json:"currency"`
	PaidTickets        int       `json:"paidTickets"`
	TicketSubtotal     string    `json:"ticketSubtotal"`
	FeeSubtotal        string    `json:"feeSubtotal"`
	IssuerFeeSubtotal  string    `json:"issuerFeeSubtotal"`
	VenueFeeSubtotal   string    `json:"venueFeeSubtotal"`
	PaymentFeeSubtotal string    `json:"paymentFeeSubtotal"`
	GrandTotal         string    `json:"grandTotal"`
	GrandTotalCents    string    `json:"grandTotalCents"`
	LineItems          []Line    `json:"lineItems"`
	QuotedAt           time.Time `json:"quotedAt"`
}

// FromOrderTotal captures a rendered order total under a new quote id.
func FromOrderTotal(id uuid.UUID, total pricing.OrderTotal, quotedAt time.Time) Quote {
	b := total.Breakdown
	lines := make([]Line, 0, len(b.LineItems))
	for _, l := range b.LineItems {
		lines = append(lines, Line{
			TicketTypeID: l.TicketTypeID,
			Quantity:     l.Quantity,
			Status:       string(l.Status),
			Amount:       pricing.PlainString(l.Amount),
		})
	}
	return Quote{
		ID:                 id,
		EventID:            b.EventID,
		Currency:           total.Currency,
		PaidTickets:        b.PaidTickets,
		TicketSubtotal:     pricing.PlainString(b.TicketSubtotal),
		FeeSubtotal:        pricing.PlainString(b.FeeSubtotal),
		IssuerFeeSubtotal:  pricing.PlainString(b.IssuerFeeSubtotal),
		VenueFeeSubtotal:   pricing.PlainString(b.VenueFeeSubtotal),
		PaymentFeeSubtotal: pricing.PlainString(b.PaymentFeeSubtotal),
		GrandTotal:         total.GrandTotal,
		GrandTotalCents:    total.GrandTotalCents,
		LineItems:          lines,
		QuotedAt:           quotedAt.UTC(),
	}
}
