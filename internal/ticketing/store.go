package ticketing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tiket/internal/pricing"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx the store reads through.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads event, fee and ticket type configuration from Postgres.
type Store struct {
	db DBTX
}

// NewStore constructs a Store.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

const findEventSQL = `
SELECT e.id, e.name, e.currency,
       COALESCE((
         SELECT json_agg(json_build_object(
                  'id', f.id,
                  'method', f.method,
                  'attribution', f.attribution,
                  'amount', f.amount::text,
                  'currency', f.currency,
                  'active', f.active
                ) ORDER BY f.created_at, f.id)
           FROM fee_configs f
          WHERE f.event_id = e.id
       ), '[]'::json) AS fees
  FROM events e
 WHERE e.id = $1`

// FindEventByID loads the event with its full fee set in one round trip.
func (s *Store) FindEventByID(ctx context.Context, id uuid.UUID) (pricing.Event, bool, error) {
	var (
		rowID    pgtype.UUID
		name     string
		currency string
		rawFees  []byte
	)
	err := s.db.QueryRow(ctx, findEventSQL, toPgUUID(id)).Scan(&rowID, &name, &currency, &rawFees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Event{}, false, nil
		}
		return pricing.Event{}, false, fmt.Errorf("ticketing: find event: %w", err)
	}
	var fees []pricing.FeeConfig
	if len(rawFees) > 0 {
		if err := json.Unmarshal(rawFees, &fees); err != nil {
			return pricing.Event{}, false, fmt.Errorf("ticketing: decode fees for event %s: %w", id, err)
		}
	}
	for i := range fees {
		fees[i].Method = pricing.FeeMethod(strings.ToUpper(strings.TrimSpace(string(fees[i].Method))))
		fees[i].Attribution = pricing.FeeAttribution(strings.ToUpper(strings.TrimSpace(string(fees[i].Attribution))))
	}
	return pricing.Event{
		ID:       uuid.UUID(rowID.Bytes),
		Name:     name,
		Currency: currency,
		Fees:     fees,
	}, true, nil
}

const findTicketTypeSQL = `
SELECT id, event_id, name, price::text, currency, active
  FROM ticket_types
 WHERE id = $1`

// FindTicketTypeByID loads a single ticket type configuration.
func (s *Store) FindTicketTypeByID(ctx context.Context, id uuid.UUID) (pricing.TicketType, bool, error) {
	var (
		rowID    pgtype.UUID
		eventID  pgtype.UUID
		name     string
		price    string
		currency string
		active   bool
	)
	err := s.db.QueryRow(ctx, findTicketTypeSQL, toPgUUID(id)).Scan(&rowID, &eventID, &name, &price, &currency, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.TicketType{}, false, nil
		}
		return pricing.TicketType{}, false, fmt.Errorf("ticketing: find ticket type: %w", err)
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return pricing.TicketType{}, false, fmt.Errorf("ticketing: ticket type %s has malformed price %q: %w", id, price, err)
	}
	return pricing.TicketType{
		ID:       uuid.UUID(rowID.Bytes),
		EventID:  uuid.UUID(eventID.Bytes),
		Name:     name,
		Price:    amount,
		Currency: currency,
		Active:   active,
	}, true, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
