package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mapFinder map[uuid.UUID]TicketType

func (m mapFinder) FindTicketTypeByID(_ context.Context, id uuid.UUID) (TicketType, bool, error) {
	tt, ok := m[id]
	return tt, ok, nil
}

type errFinder struct{}

func (errFinder) FindTicketTypeByID(context.Context, uuid.UUID) (TicketType, bool, error) {
	return TicketType{}, false, errors.New("boom")
}

func TestComputeSubtotal(t *testing.T) {
	eventID := uuid.New()
	ga, vip, comp, foreign := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	finder := mapFinder{
		ga:      {ID: ga, EventID: eventID, Price: decimal.RequireFromString("25.50"), Currency: "idr"},
		vip:     {ID: vip, EventID: eventID, Price: decimal.RequireFromString("100"), Currency: "IDR"},
		comp:    {ID: comp, EventID: eventID, Price: decimal.Zero, Currency: "USD"},
		foreign: {ID: foreign, EventID: uuid.New(), Price: decimal.RequireFromString("10"), Currency: "IDR"},
	}

	sub, err := ComputeSubtotal(context.Background(), finder, eventID, []LineItem{
		{TicketTypeID: ga, Quantity: 2},
		{TicketTypeID: vip, Quantity: 1},
		{TicketTypeID: comp, Quantity: 4},
		{TicketTypeID: foreign, Quantity: 1},
		{TicketTypeID: uuid.New(), Quantity: 1},
		{TicketTypeID: ga, Quantity: -1},
	})
	require.NoError(t, err)
	require.Equal(t, "151.00", sub.Amount.StringFixed(2))
	require.Equal(t, 3, sub.PaidTickets)
	require.Equal(t, "IDR", sub.Currency)

	statuses := make([]LineStatus, 0, len(sub.Lines))
	for _, l := range sub.Lines {
		statuses = append(statuses, l.Status)
	}
	require.Equal(t, []LineStatus{LinePriced, LinePriced, LineFree, LineUnresolved, LineUnresolved, LineInvalid}, statuses)
	require.Equal(t, "51.00", sub.Lines[0].Amount.StringFixed(2))
}

func TestComputeSubtotalFreeLinesDoNotFixCurrency(t *testing.T) {
	eventID := uuid.New()
	comp, paid := uuid.New(), uuid.New()
	finder := mapFinder{
		comp: {ID: comp, EventID: eventID, Price: decimal.Zero, Currency: "USD"},
		paid: {ID: paid, EventID: eventID, Price: decimal.RequireFromString("5"), Currency: "EUR"},
	}
	sub, err := ComputeSubtotal(context.Background(), finder, eventID, []LineItem{
		{TicketTypeID: comp, Quantity: 1},
		{TicketTypeID: paid, Quantity: 1},
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", sub.Currency)
}

func TestComputeSubtotalCurrencyMismatch(t *testing.T) {
	eventID := uuid.New()
	usd, eur := uuid.New(), uuid.New()
	finder := mapFinder{
		usd: {ID: usd, EventID: eventID, Price: decimal.RequireFromString("5"), Currency: "USD"},
		eur: {ID: eur, EventID: eventID, Price: decimal.RequireFromString("5"), Currency: "EUR"},
	}
	_, err := ComputeSubtotal(context.Background(), finder, eventID, []LineItem{
		{TicketTypeID: usd, Quantity: 1},
		{TicketTypeID: eur, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrCurrencyMismatch)
	var mismatch *CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, eur, mismatch.TicketTypeID)
	require.Equal(t, "USD", mismatch.Expected)
	require.Equal(t, "EUR", mismatch.Got)
}

func TestComputeSubtotalEmptyAndLookupError(t *testing.T) {
	sub, err := ComputeSubtotal(context.Background(), mapFinder{}, uuid.New(), nil)
	require.NoError(t, err)
	require.True(t, sub.Amount.IsZero())
	require.Empty(t, sub.Lines)

	_, err = ComputeSubtotal(context.Background(), errFinder{}, uuid.New(), []LineItem{{TicketTypeID: uuid.New(), Quantity: 1}})
	require.ErrorContains(t, err, "boom")
}

func TestComputeSubtotalReportsLinesAtScale(t *testing.T) {
	eventID, id := uuid.New(), uuid.New()
	// cached snapshots round-trip prices through JSON, which drops trailing zeros
	finder := mapFinder{id: {ID: id, EventID: eventID, Price: decimal.RequireFromString("100"), Currency: "USD"}}
	sub, err := ComputeSubtotal(context.Background(), finder, eventID, []LineItem{{TicketTypeID: id, Quantity: 1}})
	require.NoError(t, err)
	require.Equal(t, "100.00", PlainString(sub.Lines[0].UnitPrice))
	require.Equal(t, "100.00", PlainString(sub.Lines[0].Amount))
}
