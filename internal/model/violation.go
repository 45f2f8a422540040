package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationRecord is a persisted proctoring violation event.
type ViolationRecord struct {
	ID         int64     `json:"id"`
	QuizID     uuid.UUID `json:"quiz_id"`
	StudentID  int       `json:"student_id"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
}
