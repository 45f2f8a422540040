package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorly/proctorly-backend/internal/model"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// GetByID retrieves a quiz by its ID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.pool.QueryRow(ctx,
		`SELECT q.id, q.title, q.subject, q.author_id, q.duration_minutes,
		        (SELECT COUNT(*) FROM questions WHERE quiz_id = q.id),
		        q.status, q.created_at, q.updated_at
		 FROM quizzes q WHERE q.id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.Subject, &q.AuthorID, &q.DurationMinutes,
		&q.QuestionCount, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByAuthor retrieves quizzes created by a teacher, newest first, paginated.
func (r *QuizRepository) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Quiz, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.title, q.subject, q.author_id, q.duration_minutes,
		        (SELECT COUNT(*) FROM questions WHERE quiz_id = q.id),
		        q.status, q.created_at, q.updated_at
		 FROM quizzes q
		 WHERE q.author_id = $1
		 ORDER BY q.created_at DESC
		 LIMIT $2 OFFSET $3`, authorID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Subject, &q.AuthorID, &q.DurationMinutes,
			&q.QuestionCount, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, total, rows.Err()
}

// ListPublished retrieves all published quizzes for the student lobby.
func (r *QuizRepository) ListPublished(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.title, q.subject, q.author_id, q.duration_minutes,
		        (SELECT COUNT(*) FROM questions WHERE quiz_id = q.id),
		        q.status, q.created_at, q.updated_at
		 FROM quizzes q
		 WHERE q.status = $1
		 ORDER BY q.created_at DESC`, model.QuizStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Subject, &q.AuthorID, &q.DurationMinutes,
			&q.QuestionCount, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Create inserts a new quiz in DRAFT status.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (title, subject, author_id, duration_minutes, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Subject, q.AuthorID, q.DurationMinutes, model.QuizStatusDraft,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update modifies the editable quiz fields.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, subject = $2, duration_minutes = $3, updated_at = NOW()
		 WHERE id = $4`,
		q.Title, q.Subject, q.DurationMinutes, q.ID)
	return err
}

// UpdateStatus transitions a quiz between DRAFT, PUBLISHED and ARCHIVED.
func (r *QuizRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QuizStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes a quiz and, via FK cascade, its questions.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}
