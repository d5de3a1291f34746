package ticketing

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-tiket/internal/pricing"
	"github.com/noah-isme/backend-tiket/internal/resilience"
)

// GuardedLookup routes reads through a circuit breaker so a failing database is not
// hammered by every pricing request. A missing row counts as a healthy read.
type GuardedLookup struct {
	Next    pricing.Lookup
	Breaker *resilience.Breaker
}

func (g GuardedLookup) FindEventByID(ctx context.Context, id uuid.UUID) (ev pricing.Event, ok bool, err error) {
	err = g.Breaker.Do(ctx, func(ctx context.Context) error {
		var inner error
		ev, ok, inner = g.Next.FindEventByID(ctx, id)
		return inner
	}, nil)
	return ev, ok, err
}

func (g GuardedLookup) FindTicketTypeByID(ctx context.Context, id uuid.UUID) (tt pricing.TicketType, ok bool, err error) {
	err = g.Breaker.Do(ctx, func(ctx context.Context) error {
		var inner error
		tt, ok, inner = g.Next.FindTicketTypeByID(ctx, id)
		return inner
	}, nil)
	return tt, ok, err
}
