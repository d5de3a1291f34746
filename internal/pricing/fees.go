package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeMethod selects how a fee amount is applied to an order.
type FeeMethod string

const (
	// FeeMethodFlat charges Amount once per paid ticket.
	FeeMethodFlat FeeMethod = "FLAT"
	// FeeMethodPercent charges Amount as a rate of the ticket subtotal.
	FeeMethodPercent FeeMethod = "PERCENT"
)

// FeeAttribution names the party a fee is credited to at settlement.
type FeeAttribution string

const (
	AttributionIssuer FeeAttribution = "ISSUER"
	AttributionVenue  FeeAttribution = "VENUE"
)

// FeeConfig is a read-only view of one fee configured on an event.
type FeeConfig struct {
	ID          uuid.UUID       `json:"id"`
	Method      FeeMethod       `json:"method"`
	Attribution FeeAttribution  `json:"attribution"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Active      bool            `json:"active"`
}

// FeeTotals holds fee amounts rounded half-up to Scale places.
type FeeTotals struct {
	Total  decimal.Decimal
	Issuer decimal.Decimal
	Venue  decimal.Decimal
}

// SkippedFee records a fee entry left out of aggregation.
type SkippedFee struct {
	FeeID  uuid.UUID
	Reason string
}

const (
	skipUnknownMethod      = "unknown_method"
	skipUnknownAttribution = "unknown_attribution"
	skipNegativeAmount     = "negative_amount"
)

type feeSums struct {
	total  decimal.Decimal
	issuer decimal.Decimal
	venue  decimal.Decimal
}

func (s *feeSums) add(attribution FeeAttribution, amount decimal.Decimal) {
	s.total = s.total.Add(amount)
	switch attribution {
	case AttributionIssuer:
		s.issuer = s.issuer.Add(amount)
	case AttributionVenue:
		s.venue = s.venue.Add(amount)
	}
}

// AggregateFees partitions fees into percent and flat groups, sums each group per
// attribution and applies them to the ticket subtotal and the paid ticket count.
// Entries with an unknown method or attribution are returned as skipped and do not
// affect the totals; logging them is left to the caller.
func AggregateFees(fees []FeeConfig, paidTickets int, ticketSubtotal decimal.Decimal, activeOnly bool) (FeeTotals, []SkippedFee) {
	var (
		percent feeSums
		flat    feeSums
		skipped []SkippedFee
	)
	for _, fee := range fees {
		if activeOnly && !fee.Active {
			continue
		}
		if fee.Amount.IsNegative() {
			skipped = append(skipped, SkippedFee{FeeID: fee.ID, Reason: skipNegativeAmount})
			continue
		}
		switch fee.Attribution {
		case AttributionIssuer, AttributionVenue:
		default:
			skipped = append(skipped, SkippedFee{FeeID: fee.ID, Reason: skipUnknownAttribution})
			continue
		}
		switch fee.Method {
		case FeeMethodPercent:
			percent.add(fee.Attribution, fee.Amount)
		case FeeMethodFlat:
			flat.add(fee.Attribution, fee.Amount)
		default:
			skipped = append(skipped, SkippedFee{FeeID: fee.ID, Reason: skipUnknownMethod})
		}
	}

	if paidTickets < 0 {
		paidTickets = 0
	}
	tickets := decimal.NewFromInt(int64(paidTickets))
	apply := func(rate, perTicket decimal.Decimal) decimal.Decimal {
		return RoundHalfUp(rate.Mul(ticketSubtotal).Add(perTicket.Mul(tickets)))
	}
	return FeeTotals{
		Total:  apply(percent.total, flat.total),
		Issuer: apply(percent.issuer, flat.issuer),
		Venue:  apply(percent.venue, flat.venue),
	}, skipped
}
