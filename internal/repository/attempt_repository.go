package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorly/proctorly-backend/internal/model"
)

// AttemptRow combines student data with their attempt details for the
// teacher's results table.
type AttemptRow struct {
	StudentID      int                 `json:"student_id"`
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Score          *float64            `json:"score"`
	Status         model.AttemptStatus `json:"status"`
	TabSwitchCount int                 `json:"tab_switch_count"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     *time.Time          `json:"finished_at"`
}

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByQuizAndStudent retrieves the attempt for a quiz-student pair.
func (r *AttemptRepository) GetByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, started_at, finished_at, status,
		        score, correct_count, total_count, time_taken_seconds, tab_switch_count, breakdown
		 FROM attempts
		 WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID,
	).Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Status,
		&a.Score, &a.CorrectCount, &a.TotalCount, &a.TimeTakenSeconds, &a.TabSwitchCount, &a.Breakdown)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new attempt (student joins the quiz). On conflict the
// insert is a no-op and pgx.ErrNoRows is returned; callers treat that as
// "attempt already exists".
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		a.QuizID, a.StudentID, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartedAt)
}

// ListByStudent retrieves all attempts for a student, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, started_at, finished_at, status,
		        score, correct_count, total_count, time_taken_seconds, tab_switch_count, breakdown
		 FROM attempts
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Status,
			&a.Score, &a.CorrectCount, &a.TotalCount, &a.TimeTakenSeconds, &a.TabSwitchCount, &a.Breakdown); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListByQuiz retrieves student results for a quiz, paginated.
func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID, page, perPage int) ([]AttemptRow, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.email,
		        a.score, a.status, a.tab_switch_count, a.started_at, a.finished_at
		 FROM attempts a
		 JOIN students s ON a.student_id = s.id
		 WHERE a.quiz_id = $1
		 ORDER BY s.name ASC
		 LIMIT $2 OFFSET $3`, quizID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptRow
	for rows.Next() {
		var row AttemptRow
		if err := rows.Scan(&row.StudentID, &row.Name, &row.Email,
			&row.Score, &row.Status, &row.TabSwitchCount, &row.StartedAt, &row.FinishedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}
