package ticketing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tiket/internal/cache"
	"github.com/noah-isme/backend-tiket/internal/obs"
	"github.com/noah-isme/backend-tiket/internal/pricing"
)

// CachedLookup serves configuration snapshots from Redis and falls back to the wrapped
// lookup on a miss. Only found entities are cached. Cache failures never fail a read.
type CachedLookup struct {
	Next   pricing.Lookup
	Cache  *cache.Cache
	Logger zerolog.Logger
}

func (c CachedLookup) FindEventByID(ctx context.Context, id uuid.UUID) (pricing.Event, bool, error) {
	key := cache.KeyEvent(id)
	var ev pricing.Event
	if c.get(ctx, "event", key, &ev) {
		return ev, true, nil
	}
	ev, ok, err := c.Next.FindEventByID(ctx, id)
	if err != nil || !ok {
		return ev, ok, err
	}
	c.set(ctx, key, ev)
	return ev, true, nil
}

func (c CachedLookup) FindTicketTypeByID(ctx context.Context, id uuid.UUID) (pricing.TicketType, bool, error) {
	key := cache.KeyTicketType(id)
	var tt pricing.TicketType
	if c.get(ctx, "ticket_type", key, &tt) {
		return tt, true, nil
	}
	tt, ok, err := c.Next.FindTicketTypeByID(ctx, id)
	if err != nil || !ok {
		return tt, ok, err
	}
	c.set(ctx, key, tt)
	return tt, true, nil
}

func (c CachedLookup) get(ctx context.Context, entity, key string, dst any) bool {
	hit, err := c.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("lookup cache read failed")
		hit = false
	}
	if obs.LookupCacheTotal != nil && c.Cache.Enabled() {
		result := "miss"
		if hit {
			result = "hit"
		}
		obs.LookupCacheTotal.WithLabelValues(entity, result).Inc()
	}
	return hit
}

func (c CachedLookup) set(ctx context.Context, key string, v any) {
	if err := c.Cache.SetJSON(ctx, key, v); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("lookup cache write failed")
	}
}
