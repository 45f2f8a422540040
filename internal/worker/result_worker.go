package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/config"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker drains the results queue and finalizes attempts in bulk.
// The status guard in the UPDATE keeps completed attempts immutable, so a
// replayed payload is a harmless no-op.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

type resultPayload struct {
	StudentID        int             `json:"student_id"`
	QuizID           string          `json:"quiz_id"`
	Score            float64         `json:"score"`
	CorrectCount     int             `json:"correct_count"`
	TotalCount       int             `json:"total_count"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	TabSwitchCount   int             `json:"tab_switch_count"`
	Breakdown        json.RawMessage `json:"breakdown"`
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpdateResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
	}
}

// bulkUpdateResults finalizes a batch of attempts with one UNNEST UPDATE.
func (w *ResultWorker) bulkUpdateResults(ctx context.Context, batch []*resultPayload) error {
	n := len(batch)

	quizIDs := make([]uuid.UUID, 0, n)
	students := make([]int, 0, n)
	scores := make([]float64, 0, n)
	corrects := make([]int, 0, n)
	totals := make([]int, 0, n)
	timesTaken := make([]int, 0, n)
	tabSwitches := make([]int, 0, n)
	breakdowns := make([]string, 0, n)
	finishedAts := make([]time.Time, n)

	now := time.Now()
	for i, p := range batch {
		qID, err := uuid.Parse(p.QuizID)
		if err != nil {
			return err
		}
		quizIDs = append(quizIDs, qID)
		students = append(students, p.StudentID)
		scores = append(scores, p.Score)
		corrects = append(corrects, p.CorrectCount)
		totals = append(totals, p.TotalCount)
		timesTaken = append(timesTaken, p.TimeTakenSeconds)
		tabSwitches = append(tabSwitches, p.TabSwitchCount)
		breakdowns = append(breakdowns, string(p.Breakdown))
		finishedAts[i] = now
	}

	query := `
		UPDATE attempts AS a
		SET status = 'COMPLETED',
		    score = t.score,
		    correct_count = t.correct_count,
		    total_count = t.total_count,
		    time_taken_seconds = t.time_taken,
		    tab_switch_count = t.tab_switches,
		    breakdown = t.breakdown::jsonb,
		    finished_at = t.finished_at
		FROM (
			SELECT
				u.quiz_id,
				u.student_id,
				u.score,
				u.correct_count,
				u.total_count,
				u.time_taken,
				u.tab_switches,
				u.breakdown,
				u.finished_at
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::float8[],
				$4::int[],
				$5::int[],
				$6::int[],
				$7::int[],
				$8::text[],
				$9::timestamptz[]
			) AS u (quiz_id, student_id, score, correct_count, total_count, time_taken, tab_switches, breakdown, finished_at)
		) AS t
		WHERE a.quiz_id = t.quiz_id
		  AND a.student_id = t.student_id
		  AND a.status = 'IN_PROGRESS'
	`

	_, err := w.pool.Exec(ctx, query, quizIDs, students, scores, corrects, totals, timesTaken, tabSwitches, breakdowns, finishedAts)
	return err
}

func (w *ResultWorker) persistSingle(ctx context.Context, p *resultPayload) error {
	qID, err := uuid.Parse(p.QuizID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'COMPLETED',
		     score = $1,
		     correct_count = $2,
		     total_count = $3,
		     time_taken_seconds = $4,
		     tab_switch_count = $5,
		     breakdown = $6,
		     finished_at = NOW()
		 WHERE quiz_id = $7 AND student_id = $8 AND status = 'IN_PROGRESS'`,
		p.Score, p.CorrectCount, p.TotalCount, p.TimeTakenSeconds, p.TabSwitchCount,
		p.Breakdown, qID, p.StudentID,
	)
	return err
}
