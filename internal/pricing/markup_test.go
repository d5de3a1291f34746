package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestApplyPaymentMarkup(t *testing.T) {
	cases := []struct {
		in      string
		grand   string
		payment string
	}{
		{"112.50", "116.17", "3.67"},
		{"112.87", "116.55", "3.68"},
		{"337.50", "347.89", "10.39"},
		{"0.00", "0.00", "0.00"},
	}
	for _, tc := range cases {
		m := ApplyPaymentMarkup(decimal.RequireFromString(tc.in))
		require.Equal(t, tc.grand, PlainString(m.GrandTotal), tc.in)
		require.Equal(t, tc.payment, PlainString(m.PaymentFee), tc.in)
	}
}

func TestApplyPaymentMarkupMerchantNetsSubtotal(t *testing.T) {
	for _, in := range []string{"1.00", "19.99", "112.50", "2500.10"} {
		sub := decimal.RequireFromString(in)
		m := ApplyPaymentMarkup(sub)
		net := m.GrandTotal.Sub(m.GrandTotal.Mul(processorPercentRate)).Sub(processorFlatFee)
		require.True(t, net.Sub(sub).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")), "%s nets %s", in, net)
	}
}

func TestApplyPaymentMarkupNegativeShortCircuits(t *testing.T) {
	m := ApplyPaymentMarkup(decimal.RequireFromString("-3"))
	require.True(t, m.GrandTotal.IsZero())
	require.True(t, m.PaymentFee.IsZero())
}
