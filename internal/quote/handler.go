package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tiket/internal/obs"
)

// Saver persists quotes.
type Saver interface {
	Save(ctx context.Context, q Quote) (bool, error)
}

// Handler processes quote:record tasks.
type Handler struct {
	Store  Saver
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var q Quote
	if err := json.Unmarshal(t.Payload(), &q); err != nil {
		h.record("malformed")
		return fmt.Errorf("quote: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if q.ID == uuid.Nil || q.EventID == uuid.Nil {
		h.record("malformed")
		return fmt.Errorf("quote: payload missing ids: %w", asynq.SkipRetry)
	}
	if _, err := strconv.ParseInt(q.GrandTotalCents, 10, 64); err != nil {
		h.record("malformed")
		return fmt.Errorf("quote: grand total cents %q: %v: %w", q.GrandTotalCents, err, asynq.SkipRetry)
	}
	logger := h.Logger.With().Str("quote_id", q.ID.String()).Str("event_id", q.EventID.String()).Logger()

	inserted, err := h.Store.Save(ctx, q)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23503" || pgErr.Code == "22P02") {
			// foreign key or invalid text representation: retrying cannot help
			h.record("rejected")
			logger.Error().Err(err).Str("pg_code", pgErr.Code).Msg("quote rejected by database")
			return fmt.Errorf("quote: save: %v: %w", err, asynq.SkipRetry)
		}
		h.record("error")
		return fmt.Errorf("quote: save: %w", err)
	}
	if !inserted {
		h.record("duplicate")
		logger.Debug().Msg("quote already recorded")
		return nil
	}
	h.record("ok")
	logger.Info().Str("grand_total", q.GrandTotal).Str("currency", q.Currency).Msg("quote recorded")
	return nil
}

func (h Handler) record(result string) {
	if obs.QuotesRecordedTotal != nil {
		obs.QuotesRecordedTotal.WithLabelValues(result).Inc()
	}
}

// NewServeMux registers the quote handlers on an asynq mux.
func NewServeMux(h Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeRecord, h)
	return mux
}
