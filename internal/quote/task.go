package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeRecord is the asynq task type that persists a quote.
const TypeRecord = "quote:record"

// NewRecordTask builds the task for q. The task id is the quote id so a quote is
// enqueued at most once.
func NewRecordTask(q Quote, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("quote: encode task: %w", err)
	}
	base := []asynq.Option{
		asynq.TaskID(q.ID.String()),
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(24 * time.Hour),
	}
	return asynq.NewTask(TypeRecord, payload, append(base, opts...)...), nil
}

// TaskClient is satisfied by *asynq.Client.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer schedules quote recording on a queue.
type Enqueuer struct {
	Client TaskClient
	Queue  string
}

// Record enqueues q. A quote already enqueued is not an error.
func (e Enqueuer) Record(ctx context.Context, q Quote) error {
	if e.Client == nil {
		return errors.New("quote: task client not configured")
	}
	var opts []asynq.Option
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	task, err := NewRecordTask(q, opts...)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("quote: enqueue: %w", err)
	}
	return nil
}
