package ticketing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tiket/internal/pricing"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *pgtype.UUID:
			*p = r.values[i].(pgtype.UUID)
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *bool:
			*p = r.values[i].(bool)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeDB struct {
	rows    map[string]fakeRow
	lastSQL string
	args    []any
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL = sql
	f.args = args
	if row, ok := f.rows[sql]; ok {
		return row
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func pg(id uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: id, Valid: true} }

func TestStoreFindEventByID(t *testing.T) {
	eventID := uuid.New()
	feeID := uuid.New()
	fees := `[{"id":"` + feeID.String() + `","method":"percent","attribution":"venue","amount":"0.1100","currency":"USD","active":true}]`
	db := &fakeDB{rows: map[string]fakeRow{
		findEventSQL: {values: []any{pg(eventID), "Night Show", "USD", []byte(fees)}},
	}}

	ev, ok, err := NewStore(db).FindEventByID(context.Background(), eventID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, eventID, ev.ID)
	require.Equal(t, pg(eventID), db.args[0])
	require.Len(t, ev.Fees, 1)
	require.Equal(t, feeID, ev.Fees[0].ID)
	require.Equal(t, pricing.FeeMethodPercent, ev.Fees[0].Method)
	require.Equal(t, pricing.AttributionVenue, ev.Fees[0].Attribution)
	require.Equal(t, "0.11", ev.Fees[0].Amount.String())
	require.True(t, ev.Fees[0].Active)
}

func TestStoreFindEventByIDNotFound(t *testing.T) {
	_, ok, err := NewStore(&fakeDB{}).FindEventByID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreFindEventByIDError(t *testing.T) {
	boom := errors.New("conn refused")
	db := &fakeDB{rows: map[string]fakeRow{findEventSQL: {err: boom}}}
	_, _, err := NewStore(db).FindEventByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, boom)
}

func TestStoreFindTicketTypeByID(t *testing.T) {
	id, eventID := uuid.New(), uuid.New()
	db := &fakeDB{rows: map[string]fakeRow{
		findTicketTypeSQL: {values: []any{pg(id), pg(eventID), "GA", "100.00", "USD", true}},
	}}
	tt, ok, err := NewStore(db).FindTicketTypeByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, eventID, tt.EventID)
	require.Equal(t, "100.00", pricing.PlainString(tt.Price))
	require.False(t, tt.Free())
}

func TestStoreFindTicketTypeMalformedPrice(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{rows: map[string]fakeRow{
		findTicketTypeSQL: {values: []any{pg(id), pg(uuid.New()), "GA", "abc", "USD", true}},
	}}
	_, _, err := NewStore(db).FindTicketTypeByID(context.Background(), id)
	require.Error(t, err)
}
