package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/proctor"
)

// Queue-backed persistence glue between live sessions and the background
// workers. Sessions push to Redis and move on; the workers own the
// Postgres writes. A Redis failure on submit surfaces as a submit error
// so the student can retry, while violation pushes are fire-and-forget.

// QueueTelemetry implements proctor.TelemetrySink by pushing violation
// events onto the persistence queue.
type QueueTelemetry struct {
	rdb *redis.Client
}

// NewQueueTelemetry creates a QueueTelemetry.
func NewQueueTelemetry(rdb *redis.Client) *QueueTelemetry {
	return &QueueTelemetry{rdb: rdb}
}

type violationQueuePayload struct {
	StudentID int    `json:"student_id"`
	QuizID    string `json:"quiz_id"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// Record pushes one violation event. Best-effort: the in-session ledger
// keeps counting even if the push is lost.
func (t *QueueTelemetry) Record(ev proctor.ViolationEvent) {
	raw, err := json.Marshal(violationQueuePayload{
		StudentID: ev.StudentID,
		QuizID:    ev.QuizID,
		Kind:      string(ev.Kind),
		Timestamp: ev.At.Unix(),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	t.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, raw)
}

// QueueSubmitter implements proctor.Submitter by pushing the graded result
// onto the persistence queue.
type QueueSubmitter struct {
	rdb *redis.Client
}

// NewQueueSubmitter creates a QueueSubmitter.
func NewQueueSubmitter(rdb *redis.Client) *QueueSubmitter {
	return &QueueSubmitter{rdb: rdb}
}

type resultQueuePayload struct {
	StudentID        int             `json:"student_id"`
	QuizID           string          `json:"quiz_id"`
	Score            float64         `json:"score"`
	CorrectCount     int             `json:"correct_count"`
	TotalCount       int             `json:"total_count"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	TabSwitchCount   int             `json:"tab_switch_count"`
	Breakdown        json.RawMessage `json:"breakdown"`
}

// Submit enqueues the result. An error here puts the session back into
// IN_PROGRESS so the student can retry.
func (q *QueueSubmitter) Submit(ctx context.Context, result *proctor.Result) error {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	raw, err := json.Marshal(resultQueuePayload{
		StudentID:        result.StudentID,
		QuizID:           result.QuizID,
		Score:            result.Score,
		CorrectCount:     result.CorrectCount,
		TotalCount:       result.TotalCount,
		TimeTakenSeconds: result.TimeTakenSeconds,
		TabSwitchCount:   result.TabSwitchCount,
		Breakdown:        breakdown,
	})
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}
