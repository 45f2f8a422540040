package proctor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Unanswered marks a question the student has not answered yet.
const Unanswered = -1

// SubmissionState tracks the at-most-once submit sequence.
type SubmissionState int

const (
	StateInProgress SubmissionState = iota
	StateSubmitting
	StateSubmitted
)

// String implements fmt.Stringer for logging.
func (st SubmissionState) String() string {
	switch st {
	case StateInProgress:
		return "IN_PROGRESS"
	case StateSubmitting:
		return "SUBMITTING"
	case StateSubmitted:
		return "SUBMITTED"
	default:
		return "UNKNOWN"
	}
}

// LockState is the presentation-lock gate. While Locked, answer selection
// and manual submission are hard no-ops, not UI suggestions.
type LockState struct {
	Locked  bool          `json:"locked"`
	Reason  ViolationKind `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Config assembles a session controller. Scheduled quizzes pass the
// server-specified DurationSeconds; generated sessions pass
// Policy.GeneratedDuration(len(Questions)).
type Config struct {
	QuizID          string
	StudentID       int
	Questions       []Question
	DurationSeconds int
	Policy          Policy
	Client          Client
	Submitter       Submitter
	Telemetry       TelemetrySink
	Logger          zerolog.Logger

	// OnTeardown runs exactly once after the session has torn down, on
	// every exit path. Owners use it to drop their reference to the
	// session; without it a timed-out session would outlive its attempt.
	OnTeardown func()
}

// Session is the proctored exam session controller. It owns all mutable
// session state; every signal source mutates through its methods under one
// mutex, so each callback is atomic and callback ordering never matters.
type Session struct {
	mu sync.Mutex

	quizID    string
	studentID int
	questions []Question
	answers   []int
	duration  int
	remaining int

	tabSwitches int
	ledger      map[ViolationKind]int
	lock        LockState
	state       SubmissionState

	confirmPending bool
	reentryPending bool
	reentryTimer   *time.Timer
	mediaReleased  bool

	monitor    *Monitor
	client     Client
	submitter  Submitter
	telemetry  TelemetrySink
	policy     Policy
	onTeardown func()
	log        zerolog.Logger

	// now is swapped in tests to drive the lock cooldown deterministically.
	now func() time.Time

	done     chan struct{}
	teardown sync.Once
}

// New builds a session in the InProgress state with an all-unanswered
// ledger. The question set is fixed for the session's lifetime.
func New(cfg Config) (*Session, error) {
	if len(cfg.Questions) == 0 {
		return nil, errors.New("session requires at least one question")
	}
	if cfg.DurationSeconds <= 0 {
		return nil, errors.New("session requires a positive duration")
	}
	if cfg.Client == nil || cfg.Submitter == nil {
		return nil, errors.New("session requires a client and a submitter")
	}

	answers := make([]int, len(cfg.Questions))
	for i := range answers {
		answers[i] = Unanswered
	}

	ledger := make(map[ViolationKind]int, len(Kinds))
	for _, k := range Kinds {
		ledger[k] = 0
	}

	s := &Session{
		quizID:    cfg.QuizID,
		studentID: cfg.StudentID,
		questions: cfg.Questions,
		answers:   answers,
		duration:  cfg.DurationSeconds,
		remaining: cfg.DurationSeconds,
		ledger:    ledger,
		state:     StateInProgress,
		client:     cfg.Client,
		submitter:  cfg.Submitter,
		telemetry:  cfg.Telemetry,
		policy:     cfg.Policy,
		onTeardown: cfg.OnTeardown,
		log: cfg.Logger.With().
			Str("component", "proctor_session").
			Str("quiz_id", cfg.QuizID).
			Int("student_id", cfg.StudentID).
			Logger(),
		now:  time.Now,
		done: make(chan struct{}),
	}
	s.monitor = newMonitor(s)
	return s, nil
}

// Monitor exposes the integrity monitor for the signal transport.
func (s *Session) Monitor() *Monitor { return s.monitor }

// SwapClient rebinds the session to a new transport client after a
// reconnect. The caller resends current state from Snapshot.
func (s *Session) SwapClient(c Client) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// SelectAnswer records an option choice. No-op while locked or once
// submission has begun. Out-of-range indices are rejected so every ledger
// entry is always -1 or a valid option index.
func (s *Session) SelectAnswer(questionIndex, optionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lock.Locked || s.state != StateInProgress {
		return
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return
	}
	if optionIndex < 0 || optionIndex >= len(s.questions[questionIndex].Options) {
		return
	}
	s.answers[questionIndex] = optionIndex
}

// RequestSubmit starts the submit sequence. Manual requests are blocked by
// the lock gate and, when questions remain unanswered, round-trip through
// a confirmation prompt. Automatic triggers (timeout, tab-switch
// escalation) proceed directly.
func (s *Session) RequestSubmit(manual bool) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	if manual {
		if s.lock.Locked {
			s.mu.Unlock()
			return
		}
		if n := s.unansweredLocked(); n > 0 {
			s.confirmPending = true
			s.client.ConfirmSubmit(n)
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()
	s.submitNow()
}

// ConfirmPendingSubmit completes a manual submit the student confirmed.
func (s *Session) ConfirmPendingSubmit() {
	s.mu.Lock()
	if !s.confirmPending || s.state != StateInProgress || s.lock.Locked {
		s.mu.Unlock()
		return
	}
	s.confirmPending = false
	s.mu.Unlock()
	s.submitNow()
}

// CancelPendingSubmit dismisses the confirmation prompt; the session
// stays InProgress.
func (s *Session) CancelPendingSubmit() {
	s.mu.Lock()
	s.confirmPending = false
	s.mu.Unlock()
}

// submitNow executes the at-most-once submit sequence: stop monitors,
// release media, snapshot and grade the answers, leave fullscreen, then
// hand the bundle to the submitter. Concurrent callers collapse into a
// single network submission via the InProgress guard.
func (s *Session) submitNow() {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	s.state = StateSubmitting
	s.confirmPending = false

	s.monitor.deactivateLocked()
	s.stopReentryTimerLocked()
	s.releaseMediaLocked()

	res := s.buildResultLocked()

	s.client.ShowSubmitting()
	s.client.ExitFullscreen()
	s.mu.Unlock()

	err := s.submitter.Submit(context.Background(), res)

	s.mu.Lock()
	if err != nil {
		// The one transition back: answers and elapsed time are preserved
		// so the student can retry.
		s.state = StateInProgress
		s.client.SubmitFailed("Submission failed. Please check your connection and try again.")
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("result submission failed")
		return
	}

	s.state = StateSubmitted
	s.client.GotoResults(res)
	s.mu.Unlock()

	s.log.Info().
		Float64("score", res.Score).
		Int("correct", res.CorrectCount).
		Int("total", res.TotalCount).
		Int("tab_switches", res.TabSwitchCount).
		Msg("session submitted")

	s.Teardown()
}

// buildResultLocked snapshots answers at the moment submission began.
// Caller holds s.mu.
func (s *Session) buildResultLocked() *Result {
	score, correct, breakdown := scoreAnswers(s.questions, s.answers)

	violations := make(map[ViolationKind]int, len(s.ledger))
	for k, v := range s.ledger {
		violations[k] = v
	}

	return &Result{
		QuizID:           s.quizID,
		StudentID:        s.studentID,
		Score:            score,
		CorrectCount:     correct,
		TotalCount:       len(s.questions),
		TimeTakenSeconds: s.duration - s.remaining,
		TabSwitchCount:   s.tabSwitches,
		Violations:       violations,
		Breakdown:        breakdown,
	}
}

func (s *Session) unansweredLocked() int {
	n := 0
	for _, a := range s.answers {
		if a == Unanswered {
			n++
		}
	}
	return n
}

// releaseMediaLocked releases camera/mic tracks exactly once regardless of
// which exit path runs first. Caller holds s.mu.
func (s *Session) releaseMediaLocked() {
	if s.mediaReleased {
		return
	}
	s.mediaReleased = true
	s.client.ReleaseMedia()
}

// Teardown stops the clock, the monitor and the re-entry timer and
// releases media. Safe to call from any exit path; runs exactly once even
// when auto-submit and unmount race.
func (s *Session) Teardown() {
	s.teardown.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.monitor.deactivateLocked()
		s.stopReentryTimerLocked()
		s.releaseMediaLocked()
		s.mu.Unlock()
		if s.onTeardown != nil {
			s.onTeardown()
		}
		s.log.Debug().Msg("session torn down")
	})
}

// recordViolationLocked bumps the ledger, surfaces the notice and emits
// telemetry. Caller holds s.mu.
func (s *Session) recordViolationLocked(kind ViolationKind) {
	s.ledger[kind]++
	s.client.Notice(kind, kind.Message())
	if s.telemetry != nil {
		s.telemetry.Record(ViolationEvent{
			QuizID:    s.quizID,
			StudentID: s.studentID,
			Kind:      kind,
			At:        s.now(),
		})
	}
}

// Snapshot is a point-in-time copy of session state for transports and
// tests.
type Snapshot struct {
	Remaining      int                   `json:"remaining_seconds"`
	Answers        []int                 `json:"answers"`
	Unanswered     int                   `json:"unanswered"`
	TabSwitchCount int                   `json:"tab_switch_count"`
	Lock           LockState             `json:"lock"`
	State          SubmissionState       `json:"-"`
	StateName      string                `json:"state"`
	Violations     map[ViolationKind]int `json:"violations"`
}

// Snapshot returns a consistent copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]int, len(s.answers))
	copy(answers, s.answers)
	violations := make(map[ViolationKind]int, len(s.ledger))
	for k, v := range s.ledger {
		violations[k] = v
	}

	return Snapshot{
		Remaining:      s.remaining,
		Answers:        answers,
		Unanswered:     s.unansweredLocked(),
		TabSwitchCount: s.tabSwitches,
		Lock:           s.lock,
		State:          s.state,
		StateName:      s.state.String(),
		Violations:     violations,
	}
}
