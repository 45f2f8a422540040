package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorly/proctorly-backend/internal/model"
)

// ViolationRepository handles persisted proctoring violation events.
// Writes go through the violation worker's batch path; this repository
// serves the read side for the teacher's monitoring view.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// CountsByQuiz returns per-student violation totals for a quiz.
func (r *ViolationRepository) CountsByQuiz(ctx context.Context, quizID uuid.UUID) (map[int]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, COUNT(*)
		 FROM violations
		 WHERE quiz_id = $1
		 GROUP BY student_id`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var sid int
		var count int64
		if err := rows.Scan(&sid, &count); err != nil {
			return nil, err
		}
		counts[sid] = count
	}
	return counts, rows.Err()
}

// KindCountsByQuiz returns per-student, per-kind violation counts for a quiz.
func (r *ViolationRepository) KindCountsByQuiz(ctx context.Context, quizID uuid.UUID) (map[int]map[string]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, kind, COUNT(*)
		 FROM violations
		 WHERE quiz_id = $1
		 GROUP BY student_id, kind`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]map[string]int64)
	for rows.Next() {
		var sid int
		var kind string
		var count int64
		if err := rows.Scan(&sid, &kind, &count); err != nil {
			return nil, err
		}
		if counts[sid] == nil {
			counts[sid] = make(map[string]int64)
		}
		counts[sid][kind] = count
	}
	return counts, rows.Err()
}

// ListByQuizAndStudent retrieves one student's violation timeline for a quiz.
func (r *ViolationRepository) ListByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) ([]model.ViolationRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, student_id, kind, recorded_at
		 FROM violations
		 WHERE quiz_id = $1 AND student_id = $2
		 ORDER BY recorded_at`, quizID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ViolationRecord
	for rows.Next() {
		var v model.ViolationRecord
		if err := rows.Scan(&v.ID, &v.QuizID, &v.StudentID, &v.Kind, &v.RecordedAt); err != nil {
			return nil, err
		}
		records = append(records, v)
	}
	return records, rows.Err()
}
