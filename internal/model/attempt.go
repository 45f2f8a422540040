package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt is a student's run at a quiz. At most one attempt exists per
// (quiz, student); a completed attempt's result is immutable and repeat
// submissions return it unchanged.
type Attempt struct {
	ID               uuid.UUID       `json:"id"`
	QuizID           uuid.UUID       `json:"quiz_id"`
	StudentID        int             `json:"student_id"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       *time.Time      `json:"finished_at,omitempty"`
	Status           AttemptStatus   `json:"status"`
	Score            *float64        `json:"score,omitempty"`
	CorrectCount     *int            `json:"correct_count,omitempty"`
	TotalCount       *int            `json:"total_count,omitempty"`
	TimeTakenSeconds *int            `json:"time_taken_seconds,omitempty"`
	TabSwitchCount   int             `json:"tab_switch_count"`
	Breakdown        json.RawMessage `json:"breakdown,omitempty"`
}
