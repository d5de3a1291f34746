package quote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tiket/internal/pricing"
)

func sampleQuote(t *testing.T) Quote {
	t.Helper()
	ticketTypeID := uuid.New()
	b := pricing.PriceBreakdown{
		EventID:            uuid.New(),
		TicketSubtotal:     decimal.RequireFromString("100.00"),
		FeeSubtotal:        decimal.RequireFromString("12.50"),
		IssuerFeeSubtotal:  decimal.RequireFromString("10.00"),
		VenueFeeSubtotal:   decimal.RequireFromString("2.50"),
		PaymentFeeSubtotal: decimal.RequireFromString("3.67"),
		GrandTotal:         decimal.RequireFromString("116.17"),
		Currency:           "USD",
		PaidTickets:        1,
		LineItems: []pricing.LineResolution{{
			TicketTypeID: ticketTypeID,
			Quantity:     1,
			Status:       pricing.LinePriced,
			UnitPrice:    decimal.RequireFromString("100.00"),
			Amount:       decimal.RequireFromString("100.00"),
		}},
	}
	return FromOrderTotal(uuid.New(), pricing.Render(b), time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("WIB", 7*3600)))
}

func TestFromOrderTotal(t *testing.T) {
	q := sampleQuote(t)
	require.Equal(t, "100.00", q.TicketSubtotal)
	require.Equal(t, "12.50", q.FeeSubtotal)
	require.Equal(t, "10.00", q.IssuerFeeSubtotal)
	require.Equal(t, "2.50", q.VenueFeeSubtotal)
	require.Equal(t, "3.67", q.PaymentFeeSubtotal)
	require.Equal(t, "116.17", q.GrandTotal)
	require.Equal(t, "11617", q.GrandTotalCents)
	require.Equal(t, time.UTC, q.QuotedAt.Location())
	require.Len(t, q.LineItems, 1)
	require.Equal(t, "priced", q.LineItems[0].Status)
	require.Equal(t, "100.00", q.LineItems[0].Amount)
}

func TestNewRecordTask(t *testing.T) {
	q := sampleQuote(t)
	task, err := NewRecordTask(q)
	require.NoError(t, err)
	require.Equal(t, TypeRecord, task.Type())

	var decoded Quote
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, q.ID, decoded.ID)
	require.Equal(t, q.GrandTotal, decoded.GrandTotal)
}

type fakeClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "x"}, nil
}

func TestEnqueuerRecord(t *testing.T) {
	client := &fakeClient{}
	e := Enqueuer{Client: client, Queue: "quotes"}
	require.NoError(t, e.Record(context.Background(), sampleQuote(t)))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TypeRecord, client.tasks[0].Type())
}

func TestEnqueuerRecordConflictIsNotAnError(t *testing.T) {
	e := Enqueuer{Client: &fakeClient{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, e.Record(context.Background(), sampleQuote(t)))
}

func TestEnqueuerRecordFailure(t *testing.T) {
	e := Enqueuer{Client: &fakeClient{err: errors.New("redis down")}}
	err := e.Record(context.Background(), sampleQuote(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis down")

	require.Error(t, Enqueuer{}.Record(context.Background(), sampleQuote(t)))
}

type fakeExec struct {
	sql  string
	args []any
	tag  pgconn.CommandTag
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return f.tag, f.err
}

func TestStoreSave(t *testing.T) {
	db := &fakeExec{tag: pgconn.NewCommandTag("INSERT 0 1")}
	q := sampleQuote(t)
	inserted, err := NewStore(db).Save(context.Background(), q)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Contains(t, db.sql, "ON CONFLICT (id) DO NOTHING")
	require.Len(t, db.args, 13)
	require.Equal(t, pgtype.UUID{Bytes: q.ID, Valid: true}, db.args[0])
	require.Equal(t, int64(11617), db.args[10])
	require.JSONEq(t, `[{"ticketTypeId":"`+q.LineItems[0].TicketTypeID.String()+`","quantity":1,"status":"priced","amount":"100.00"}]`, string(db.args[11].([]byte)))
}

func TestStoreSaveDuplicate(t *testing.T) {
	db := &fakeExec{tag: pgconn.NewCommandTag("INSERT 0 0")}
	inserted, err := NewStore(db).Save(context.Background(), sampleQuote(t))
	require.NoError(t, err)
	require.False(t, inserted)
}

func TestStoreSaveRejectsBadCents(t *testing.T) {
	q := sampleQuote(t)
	q.GrandTotalCents = "11.617"
	_, err := NewStore(&fakeExec{}).Save(context.Background(), q)
	require.Error(t, err)
}

type fakeSaver struct {
	inserted bool
	err      error
	saved    []Quote
}

func (f *fakeSaver) Save(_ context.Context, q Quote) (bool, error) {
	f.saved = append(f.saved, q)
	return f.inserted, f.err
}

func recordTask(t *testing.T, q Quote) *asynq.Task {
	t.Helper()
	task, err := NewRecordTask(q)
	require.NoError(t, err)
	return task
}

func TestHandlerProcessTask(t *testing.T) {
	store := &fakeSaver{inserted: true}
	h := Handler{Store: store, Logger: zerolog.Nop()}
	q := sampleQuote(t)
	require.NoError(t, h.ProcessTask(context.Background(), recordTask(t, q)))
	require.Len(t, store.saved, 1)
	require.Equal(t, q.ID, store.saved[0].ID)
}

func TestHandlerDuplicateSucceeds(t *testing.T) {
	h := Handler{Store: &fakeSaver{inserted: false}, Logger: zerolog.Nop()}
	require.NoError(t, h.ProcessTask(context.Background(), recordTask(t, sampleQuote(t))))
}

func TestHandlerMalformedPayloadSkipsRetry(t *testing.T) {
	store := &fakeSaver{}
	h := Handler{Store: store, Logger: zerolog.Nop()}

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeRecord, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(TypeRecord, []byte(`{"grandTotal":"1.00"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, store.saved)
}

func TestHandlerPermanentDatabaseErrorSkipsRetry(t *testing.T) {
	h := Handler{Store: &fakeSaver{err: &pgconn.PgError{Code: "23503"}}, Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), recordTask(t, sampleQuote(t)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlerTransientErrorRetries(t *testing.T) {
	h := Handler{Store: &fakeSaver{err: errors.New("connection reset")}, Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), recordTask(t, sampleQuote(t)))
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandlerMalformedCentsSkipsRetry(t *testing.T) {
	store := &fakeSaver{inserted: true}
	h := Handler{Store: store, Logger: zerolog.Nop()}
	q := sampleQuote(t)
	q.GrandTotalCents = "116.17"

	err := h.ProcessTask(context.Background(), recordTask(t, q))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, store.saved)
}
