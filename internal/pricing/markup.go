package pricing

import "github.com/shopspring/decimal"

var (
	// processorPercentRate and processorFlatFee are the payment processor's surcharge.
	processorPercentRate = decimal.RequireFromString("0.029")
	processorFlatFee     = decimal.RequireFromString("0.30")
)

// Markup is the payable total after the processor surcharge is passed on to the buyer.
type Markup struct {
	GrandTotal decimal.Decimal
	PaymentFee decimal.Decimal
}

// ApplyPaymentMarkup grosses subtotalWithFees up so that once the processor deducts its
// percentage and flat fee from GrandTotal the merchant nets subtotalWithFees:
//
//	GrandTotal = (subtotalWithFees + flat) / (1 - rate)
//
// The division rounds half-up to Scale places. Orders totalling zero or less carry no
// surcharge.
func ApplyPaymentMarkup(subtotalWithFees decimal.Decimal) Markup {
	if subtotalWithFees.Sign() <= 0 {
		return Markup{GrandTotal: zeroAmount, PaymentFee: zeroAmount}
	}
	divisor := decimal.NewFromInt(1).Sub(processorPercentRate)
	grand := subtotalWithFees.Add(processorFlatFee).DivRound(divisor, Scale)
	return Markup{GrandTotal: grand, PaymentFee: grand.Sub(subtotalWithFees)}
}
