package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/repository"
)

// MonitorService assembles the teacher's live integrity view for a quiz.
type MonitorService struct {
	violationRepo *repository.ViolationRepository
	registry      *LiveRegistry
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(violationRepo *repository.ViolationRepository, registry *LiveRegistry) *MonitorService {
	return &MonitorService{violationRepo: violationRepo, registry: registry}
}

// IntegritySnapshot holds per-student violation counts for a quiz.
type IntegritySnapshot struct {
	TotalViolations int64                    `json:"total_violations"`
	ByStudent       map[int]int64            `json:"by_student"`
	ByStudentKind   map[int]map[string]int64 `json:"by_student_kind"`
	LiveSessions    int                      `json:"live_sessions"`
}

// GetIntegritySnapshot fetches total and per-kind counts concurrently.
// Totals are critical; the per-kind breakdown is best-effort.
func (s *MonitorService) GetIntegritySnapshot(ctx context.Context, quizID uuid.UUID) (*IntegritySnapshot, error) {
	var (
		totals    map[int]int64
		kinds     map[int]map[string]int64
		totalsErr error
		kindsErr  error
		wg        sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		totals, totalsErr = s.violationRepo.CountsByQuiz(ctx, quizID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		kinds, kindsErr = s.violationRepo.KindCountsByQuiz(ctx, quizID)
	}()

	wg.Wait()

	if totalsErr != nil {
		return nil, totalsErr
	}

	snapshot := &IntegritySnapshot{
		ByStudent:     make(map[int]int64),
		ByStudentKind: make(map[int]map[string]int64),
		LiveSessions:  s.registry.Count(),
	}
	if totals != nil {
		snapshot.ByStudent = totals
		for _, count := range totals {
			snapshot.TotalViolations += count
		}
	}
	if kindsErr == nil && kinds != nil {
		snapshot.ByStudentKind = kinds
	}
	return snapshot, nil
}

// GetStudentTimeline returns one student's violation history for a quiz.
func (s *MonitorService) GetStudentTimeline(ctx context.Context, quizID uuid.UUID, studentID int) ([]model.ViolationRecord, error) {
	return s.violationRepo.ListByQuizAndStudent(ctx, quizID, studentID)
}
