// Package checkout exposes order pricing over HTTP.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tiket/internal/pricing"
	"github.com/noah-isme/backend-tiket/internal/quote"
)

// Pricer is satisfied by *pricing.Calculator.
type Pricer interface {
	CalculateTotalPrice(ctx context.Context, eventID uuid.UUID, items []pricing.LineItem) (pricing.PriceBreakdown, error)
	CalculateOrderTotal(ctx context.Context, eventID uuid.UUID, items []pricing.LineItem) (pricing.OrderTotal, error)
}

// QuoteRecorder schedules a quote for the ledger.
type QuoteRecorder interface {
	Record(ctx context.Context, q quote.Quote) error
}

// Service prices orders and optionally records the resulting quote.
type Service struct {
	Pricer Pricer
	Quotes QuoteRecorder
	Now    func() time.Time
	NewID  func() uuid.UUID
}

// Quoted is an order total plus the id it was recorded under, if any.
type Quoted struct {
	pricing.OrderTotal
	QuoteID string `json:"quoteId,omitempty"`
}

// Price returns the full breakdown for an order.
func (s *Service) Price(ctx context.Context, eventID uuid.UUID, items []pricing.LineItem) (pricing.PriceBreakdown, error) {
	if s == nil || s.Pricer == nil {
		return pricing.PriceBreakdown{}, errors.New("checkout service not configured")
	}
	return s.Pricer.CalculateTotalPrice(ctx, eventID, items)
}

// OrderTotal renders the order total. When record is set and a recorder is configured
// the quote is enqueued; a failed enqueue is logged and the total still returned.
func (s *Service) OrderTotal(ctx context.Context, eventID uuid.UUID, items []pricing.LineItem, record bool) (Quoted, error) {
	if s == nil || s.Pricer == nil {
		return Quoted{}, errors.New("checkout service not configured")
	}
	total, err := s.Pricer.CalculateOrderTotal(ctx, eventID, items)
	if err != nil {
		return Quoted{}, err
	}
	out := Quoted{OrderTotal: total}
	if !record || s.Quotes == nil {
		return out, nil
	}

	q := quote.FromOrderTotal(s.newID(), total, s.now())
	if err := s.Quotes.Record(ctx, q); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("quote_id", q.ID.String()).Msg("record quote")
		return out, nil
	}
	out.QuoteID = q.ID.String()
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() uuid.UUID {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.New()
}
