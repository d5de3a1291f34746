package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx the store writes through.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists quotes into price_quotes.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const insertQuoteSQL = `
INSERT INTO price_quotes (
    id, event_id, currency, paid_tickets,
    ticket_subtotal, fee_subtotal, issuer_fee_subtotal, venue_fee_subtotal,
    payment_fee_subtotal, grand_total, grand_total_cents, line_items, quoted_at
) VALUES (
    $1, $2, $3, $4,
    $5::text::numeric, $6::text::numeric, $7::text::numeric, $8::text::numeric,
    $9::text::numeric, $10::text::numeric, $11, $12::jsonb, $13
)
ON CONFLICT (id) DO NOTHING`

// Save inserts q. It reports whether a new row was written; a quote recorded earlier is
// left untouched.
func (s *Store) Save(ctx context.Context, q Quote) (bool, error) {
	cents, err := strconv.ParseInt(q.GrandTotalCents, 10, 64)
	if err != nil {
		return false, fmt.Errorf("quote: grand total cents %q: %w", q.GrandTotalCents, err)
	}
	lines, err := json.Marshal(q.LineItems)
	if err != nil {
		return false, fmt.Errorf("quote: encode line items: %w", err)
	}
	tag, err := s.db.Exec(ctx, insertQuoteSQL,
		pgtype.UUID{Bytes: q.ID, Valid: true},
		pgtype.UUID{Bytes: q.EventID, Valid: true},
		q.Currency,
		q.PaidTickets,
		q.TicketSubtotal,
		q.FeeSubtotal,
		q.IssuerFeeSubtotal,
		q.VenueFeeSubtotal,
		q.PaymentFeeSubtotal,
		q.GrandTotal,
		cents,
		lines,
		q.QuotedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
