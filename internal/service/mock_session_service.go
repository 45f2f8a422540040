package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/proctor"
)

// Common mock-session errors.
var (
	ErrMockSessionNotFound = errors.New("mock session not found or expired")
	ErrMockResultNotReady  = errors.New("mock session result not ready")
)

// Mock sessions are ephemeral: question material and the graded result
// live in Redis with a TTL, never in Postgres.
const (
	mockSessionTTL = 6 * time.Hour
	mockResultTTL  = 24 * time.Hour
)

// MockSessionService runs the ad-hoc practice flow: generate a question
// batch from study material, stage it in Redis, and hand it to the live
// session stream on demand. The time limit is derived from the question
// count since there is no author-specified duration.
type MockSessionService struct {
	generationService *GenerationService
	rdb               *redis.Client
	policy            proctor.Policy
	log               zerolog.Logger
}

// NewMockSessionService creates a new MockSessionService.
func NewMockSessionService(generationService *GenerationService, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *MockSessionService {
	return &MockSessionService{
		generationService: generationService,
		rdb:               rdb,
		policy: proctor.Policy{
			SecondsPerQuestion: cfg.ProctorSecondsPerQuestion,
			MinDurationSeconds: cfg.ProctorMinDurationSec,
		},
		log: log.With().Str("component", "mock_session_service").Logger(),
	}
}

// MockSessionMaterial is everything the session stream needs to run a
// generated practice session.
type MockSessionMaterial struct {
	SessionID       string             `json:"session_id"`
	StudentID       int                `json:"student_id"`
	Questions       []proctor.Question `json:"questions"`
	DurationSeconds int                `json:"duration_seconds"`
	CreatedAt       time.Time          `json:"created_at"`
}

// MockSessionInfo is the creation response handed back to the student.
type MockSessionInfo struct {
	SessionID       string `json:"session_id"`
	QuestionCount   int    `json:"question_count"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Create generates a question batch and stages the session material. The
// session starts ticking only when the student opens its stream.
func (s *MockSessionService) Create(ctx context.Context, studentID int, req *model.MockSessionRequest) (*MockSessionInfo, error) {
	generated, err := s.generationService.Generate(ctx, req.SourceText, req.Count, req.Difficulty)
	if err != nil {
		return nil, err
	}

	material, err := buildMockMaterial(studentID, generated, s.policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	raw, err := json.Marshal(material)
	if err != nil {
		return nil, fmt.Errorf("marshal material: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.MockSessionKey(material.SessionID), raw, mockSessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("store material: %w", err)
	}

	s.log.Info().
		Str("session_id", material.SessionID).
		Int("student_id", studentID).
		Int("questions", len(material.Questions)).
		Msg("mock session created")

	return &MockSessionInfo{
		SessionID:       material.SessionID,
		QuestionCount:   len(material.Questions),
		DurationSeconds: material.DurationSeconds,
	}, nil
}

// buildMockMaterial turns a generated batch into controller questions.
// The correct letter becomes an option index here, at session start, so
// the controller never sees letters.
func buildMockMaterial(studentID int, generated []model.GeneratedQuestion, policy proctor.Policy) (*MockSessionMaterial, error) {
	questions := make([]proctor.Question, 0, len(generated))
	for i, g := range generated {
		idx, err := CorrectIndexFromLetter(g.CorrectLetter)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, proctor.Question{
			Text:         g.Question,
			Options:      g.Options,
			CorrectIndex: idx,
			Explanation:  g.Explanation,
		})
	}

	return &MockSessionMaterial{
		SessionID:       uuid.New().String(),
		StudentID:       studentID,
		Questions:       questions,
		DurationSeconds: policy.GeneratedDuration(len(questions)),
		CreatedAt:       time.Now(),
	}, nil
}

// Load fetches staged material for a session owned by the student. A
// session belonging to another student is indistinguishable from a
// missing one.
func (s *MockSessionService) Load(ctx context.Context, sessionID string, studentID int) (*MockSessionMaterial, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.MockSessionKey(sessionID)).Bytes()
	if err != nil {
		return nil, ErrMockSessionNotFound
	}
	material := &MockSessionMaterial{}
	if err := json.Unmarshal(raw, material); err != nil {
		return nil, ErrMockSessionNotFound
	}
	if material.StudentID != studentID {
		return nil, ErrMockSessionNotFound
	}
	return material, nil
}

// GetResult returns the stored result of a submitted practice session.
func (s *MockSessionService) GetResult(ctx context.Context, sessionID string, studentID int) (*proctor.Result, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.MockResultKey(sessionID)).Bytes()
	if err != nil {
		return nil, ErrMockResultNotReady
	}
	result := &proctor.Result{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, ErrMockResultNotReady
	}
	if result.StudentID != studentID {
		return nil, ErrMockResultNotReady
	}
	return result, nil
}

// Submitter returns the submission collaborator for practice sessions.
// Results go to Redis under the session's result key; there is no catalog
// quiz row for the attempts table to reference.
func (s *MockSessionService) Submitter() proctor.Submitter {
	return &mockSubmitter{svc: s}
}

type mockSubmitter struct {
	svc *MockSessionService
}

// Submit stores the graded bundle and consumes the staged material so the
// session cannot be re-entered. The session ID travels in Result.QuizID.
func (m *mockSubmitter) Submit(ctx context.Context, res *proctor.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := m.svc.rdb.Set(ctx, config.CacheKey.MockResultKey(res.QuizID), raw, mockResultTTL).Err(); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	m.svc.rdb.Del(ctx, config.CacheKey.MockSessionKey(res.QuizID))
	return nil
}
