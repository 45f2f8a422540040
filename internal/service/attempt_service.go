package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/proctor"
	"github.com/proctorly/proctorly-backend/internal/repository"
)

// Common attempt errors.
var (
	ErrQuizNotAvailable = errors.New("quiz is not available for joining")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrAttemptNotFound  = errors.New("attempt not found")
)

// AttemptService handles the student-facing attempt lifecycle: lobby,
// join, paper delivery and results.
type AttemptService struct {
	attemptRepo  *repository.AttemptRepository
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
) *AttemptService {
	return &AttemptService{
		attemptRepo:  attemptRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
	}
}

// LobbyStatus represents the concrete state of a quiz in the student lobby.
type LobbyStatus string

const (
	LobbyStatusAvailable  LobbyStatus = "AVAILABLE"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
)

// LobbyQuiz represents a quiz as displayed in the student lobby.
type LobbyQuiz struct {
	model.Quiz
	LobbyStatus LobbyStatus `json:"lobby_status"`
	Score       *float64    `json:"score,omitempty"`
}

// GetLobby returns published quizzes with the student's attempt state overlaid.
func (s *AttemptService) GetLobby(ctx context.Context, studentID int) ([]LobbyQuiz, error) {
	quizzes, err := s.quizRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}

	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	attemptMap := make(map[uuid.UUID]*model.Attempt, len(attempts))
	for i := range attempts {
		attemptMap[attempts[i].QuizID] = &attempts[i]
	}

	lobby := make([]LobbyQuiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		entry := LobbyQuiz{Quiz: quiz, LobbyStatus: LobbyStatusAvailable}
		if a, ok := attemptMap[quiz.ID]; ok {
			if a.Status == model.AttemptStatusCompleted {
				entry.LobbyStatus = LobbyStatusCompleted
				entry.Score = a.Score
			} else {
				entry.LobbyStatus = LobbyStatusInProgress
			}
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// Join creates (or resumes) the student's attempt on a published quiz.
// Joining is idempotent: an existing in-progress attempt is returned as-is.
func (s *AttemptService) Join(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, ErrQuizNotAvailable
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotAvailable
	}
	if quiz.QuestionCount == 0 {
		return nil, ErrQuizNotAvailable
	}

	attempt := &model.Attempt{QuizID: quizID, StudentID: studentID, Status: model.AttemptStatusInProgress}
	err = s.attemptRepo.Create(ctx, attempt)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	// Conflict: the attempt already exists.
	existing, err := s.attemptRepo.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if existing.Status == model.AttemptStatusCompleted {
		return existing, ErrAttemptCompleted
	}
	return existing, nil
}

// GetPaper returns the redacted question paper for an in-progress attempt,
// served from the Redis prewarm cache when possible.
func (s *AttemptService) GetPaper(ctx context.Context, quizID uuid.UUID, studentID int) (*model.QuizPayload, error) {
	attempt, err := s.attemptRepo.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return nil, ErrAttemptCompleted
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Bytes()
	if err == nil {
		payload := &model.QuizPayload{}
		if jsonErr := json.Unmarshal(raw, payload); jsonErr == nil {
			return payload, nil
		}
	}

	// Cache miss: build from the DB.
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return BuildPaper(quiz, questions), nil
}

// LoadSessionMaterial fetches everything a live proctored session needs:
// the full (unredacted) question set and the quiz duration in seconds.
// Answers never leave the server; they live only inside the session.
func (s *AttemptService) LoadSessionMaterial(ctx context.Context, quizID uuid.UUID) ([]proctor.Question, int, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, 0, fmt.Errorf("get quiz: %w", err)
	}
	rows, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]proctor.Question, 0, len(rows))
	for _, q := range rows {
		questions = append(questions, proctor.Question{
			Text:         q.QuestionText,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}
	return questions, quiz.DurationMinutes * 60, nil
}

// GetResult returns the completed attempt with its stored breakdown.
func (s *AttemptService) GetResult(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusCompleted {
		return nil, errors.New("attempt not finished")
	}
	return attempt, nil
}

// ListHistory returns the student's past attempts.
func (s *AttemptService) ListHistory(ctx context.Context, studentID int) ([]model.Attempt, error) {
	return s.attemptRepo.ListByStudent(ctx, studentID)
}

// ListResults returns paginated per-student results for a quiz (teacher view).
func (s *AttemptService) ListResults(ctx context.Context, quizID uuid.UUID, page, perPage int) ([]repository.AttemptRow, int64, error) {
	return s.attemptRepo.ListByQuiz(ctx, quizID, page, perPage)
}
