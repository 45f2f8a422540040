package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/repository"
)

// Common quiz errors.
var (
	ErrNotQuizAuthor = errors.New("not the quiz author")
	ErrQuizNotDraft  = errors.New("quiz is not in draft status")
	ErrNoQuestions   = errors.New("quiz has no questions")
)

// QuizService handles quiz authoring business logic.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
) *QuizService {
	return &QuizService{quizRepo: quizRepo, questionRepo: questionRepo, rdb: rdb}
}

// Create makes a new draft quiz owned by the teacher.
func (s *QuizService) Create(ctx context.Context, authorID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		Title:           req.Title,
		Subject:         req.Subject,
		AuthorID:        authorID,
		DurationMinutes: req.DurationMinutes,
		Status:          model.QuizStatusDraft,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// Update edits quiz metadata. Only the author may edit, and only drafts.
func (s *QuizService) Update(ctx context.Context, quizID uuid.UUID, authorID int, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Subject != "" {
		quiz.Subject = req.Subject
	}
	if req.DurationMinutes > 0 {
		quiz.DurationMinutes = req.DurationMinutes
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	return quiz, nil
}

// Publish transitions a draft quiz to PUBLISHED and prewarms the paper
// cache so the first student to join doesn't pay the DB round trip.
func (s *QuizService) Publish(ctx context.Context, quizID uuid.UUID, authorID int) (*model.Quiz, error) {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}

	count, err := s.questionRepo.CountByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if count == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.quizRepo.UpdateStatus(ctx, quizID, model.QuizStatusPublished); err != nil {
		return nil, fmt.Errorf("publish quiz: %w", err)
	}
	quiz.Status = model.QuizStatusPublished
	quiz.QuestionCount = count

	// Best-effort: cache miss just falls back to the DB on first join.
	if err := s.PrewarmPaper(ctx, quiz); err != nil {
		return quiz, nil
	}
	return quiz, nil
}

// Archive takes a published quiz out of the student lobby.
func (s *QuizService) Archive(ctx context.Context, quizID uuid.UUID, authorID int) error {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return err
	}
	if err := s.quizRepo.UpdateStatus(ctx, quizID, model.QuizStatusArchived); err != nil {
		return fmt.Errorf("archive quiz: %w", err)
	}
	s.rdb.Del(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()))
	return nil
}

// Delete removes a draft quiz.
func (s *QuizService) Delete(ctx context.Context, quizID uuid.UUID, authorID int) error {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return err
	}
	if quiz.Status != model.QuizStatusDraft {
		return ErrQuizNotDraft
	}
	return s.quizRepo.Delete(ctx, quizID)
}

// ListByAuthor returns a teacher's quizzes, paginated.
func (s *QuizService) ListByAuthor(ctx context.Context, authorID, page, perPage int) ([]model.Quiz, int64, error) {
	return s.quizRepo.ListByAuthor(ctx, authorID, page, perPage)
}

// Get returns a quiz if owned by the teacher.
func (s *QuizService) Get(ctx context.Context, quizID uuid.UUID, authorID int) (*model.Quiz, error) {
	return s.getOwned(ctx, quizID, authorID)
}

// GetQuestions returns a quiz's full question set, answers included.
// Teacher-facing only.
func (s *QuizService) GetQuestions(ctx context.Context, quizID uuid.UUID, authorID int) ([]model.Question, error) {
	if _, err := s.getOwned(ctx, quizID, authorID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByQuiz(ctx, quizID)
}

// AddQuestion appends a question to a draft quiz.
func (s *QuizService) AddQuestion(ctx context.Context, quizID uuid.UUID, authorID int, req *model.AddQuestionRequest) (*model.Question, error) {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizStatusDraft {
		return nil, ErrQuizNotDraft
	}
	if req.CorrectIndex >= len(req.Options) {
		return nil, errors.New("correct_index out of range")
	}

	q := &model.Question{
		QuizID:       quizID,
		QuestionText: req.QuestionText,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
		Explanation:  req.Explanation,
		OrderNum:     req.OrderNum,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// ReplaceQuestions swaps the entire question set of a draft quiz. Used when
// a teacher accepts a generated batch.
func (s *QuizService) ReplaceQuestions(ctx context.Context, quizID uuid.UUID, authorID int, req *model.ReplaceQuestionsRequest) error {
	quiz, err := s.getOwned(ctx, quizID, authorID)
	if err != nil {
		return err
	}
	if quiz.Status != model.QuizStatusDraft {
		return ErrQuizNotDraft
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, rq := range req.Questions {
		if rq.CorrectIndex >= len(rq.Options) {
			return fmt.Errorf("question %d: correct_index out of range", i)
		}
		questions = append(questions, model.Question{
			QuizID:       quizID,
			QuestionText: rq.QuestionText,
			Options:      rq.Options,
			CorrectIndex: rq.CorrectIndex,
			Explanation:  rq.Explanation,
		})
	}
	return s.questionRepo.ReplaceAll(ctx, quizID, questions)
}

// PrewarmPaper serializes the redacted paper into Redis.
func (s *QuizService) PrewarmPaper(ctx context.Context, quiz *model.Quiz) error {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}

	payload := BuildPaper(quiz, questions)
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()), raw, 12*time.Hour).Err()
}

// BuildPaper redacts a question set into the student-facing paper.
func BuildPaper(quiz *model.Quiz, questions []model.Question) *model.QuizPayload {
	payload := &model.QuizPayload{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		DurationMinutes: quiz.DurationMinutes,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}
	for _, q := range questions {
		payload.Questions = append(payload.Questions, model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			OrderNum:     q.OrderNum,
		})
	}
	return payload
}

func (s *QuizService) getOwned(ctx context.Context, quizID uuid.UUID, authorID int) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.AuthorID != authorID {
		return nil, ErrNotQuizAuthor
	}
	return quiz, nil
}
