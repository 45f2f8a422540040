package proctor

import "time"

// ViolationKind identifies a single category of proctoring violation.
type ViolationKind string

const (
	ViolationNoFace       ViolationKind = "NO_FACE"
	ViolationMultipleFace ViolationKind = "MULTIPLE_FACE"
	ViolationVoice        ViolationKind = "VOICE_DETECTED"
	ViolationTabSwitch    ViolationKind = "TAB_SWITCH"
)

// Kinds lists every violation kind. Ledgers are initialized from it so
// every kind is present with a zero count from session start.
var Kinds = []ViolationKind{
	ViolationNoFace,
	ViolationMultipleFace,
	ViolationVoice,
	ViolationTabSwitch,
}

// Message returns the human-readable notice shown when the kind is raised.
// The lock overlay reuses it so the student always sees which signal
// triggered the lock.
func (k ViolationKind) Message() string {
	switch k {
	case ViolationNoFace:
		return "No face detected. Please stay visible to the camera."
	case ViolationMultipleFace:
		return "Multiple faces detected. Only you may be visible during the exam."
	case ViolationVoice:
		return "Voice detected. Please keep your environment silent."
	case ViolationTabSwitch:
		return "Tab switch detected. Leaving the exam window is not allowed."
	default:
		return "Suspicious activity detected."
	}
}

// ViolationEvent is handed to the telemetry sink for audit.
type ViolationEvent struct {
	QuizID    string        `json:"quiz_id"`
	StudentID int           `json:"student_id"`
	Kind      ViolationKind `json:"kind"`
	At        time.Time     `json:"at"`
}

// TelemetrySink receives violation events for audit. Implementations must
// swallow their own delivery failures; the session controller never checks.
type TelemetrySink interface {
	Record(ev ViolationEvent)
}
