package proctor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newMonitorSession(t *testing.T, policy Policy) (*Session, *fakeClient, *fakeSubmitter, *fakeSink) {
	t.Helper()
	client := &fakeClient{}
	submitter := &fakeSubmitter{}
	sink := &fakeSink{}
	s, err := New(Config{
		QuizID:          "quiz-m",
		StudentID:       3,
		Questions:       testQuestions(4),
		DurationSeconds: 600,
		Policy:          policy,
		Client:          client,
		Submitter:       submitter,
		Telemetry:       sink,
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, client, submitter, sink
}

// setClock pins the session's time source for cooldown tests.
func setClock(s *Session, at time.Time) {
	s.mu.Lock()
	s.now = func() time.Time { return at }
	s.mu.Unlock()
}

// ─── Face signals ───────────────────────────────────────────────────

func TestNoFaceRaisedAfterConsecutiveFrames(t *testing.T) {
	s, client, _, sink := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()

	for i := 0; i < DefaultPolicy().NoFaceFrames-1; i++ {
		m.ObserveFrame(0)
	}
	if got := s.Snapshot().Violations[ViolationNoFace]; got != 0 {
		t.Fatalf("violation raised after %d frames, debounce broken", DefaultPolicy().NoFaceFrames-1)
	}

	m.ObserveFrame(0)
	snap := s.Snapshot()
	if snap.Violations[ViolationNoFace] != 1 {
		t.Fatalf("ledger[NoFace] = %d, want 1", snap.Violations[ViolationNoFace])
	}
	if !snap.Lock.Locked || snap.Lock.Reason != ViolationNoFace {
		t.Errorf("lock = %+v, want locked with NoFace reason", snap.Lock)
	}
	if client.locks() != 1 {
		t.Errorf("lock overlay shown %d times, want 1", client.locks())
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0].Kind != ViolationNoFace {
		t.Errorf("telemetry events = %+v, want one NoFace event", sink.events)
	}
}

func TestFaceRunResetByClearFrame(t *testing.T) {
	s, _, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()

	for i := 0; i < DefaultPolicy().NoFaceFrames-1; i++ {
		m.ObserveFrame(0)
	}
	m.ObserveFrame(1) // one clear frame resets the run
	for i := 0; i < DefaultPolicy().NoFaceFrames-1; i++ {
		m.ObserveFrame(0)
	}

	if got := s.Snapshot().Violations[ViolationNoFace]; got != 0 {
		t.Errorf("ledger[NoFace] = %d, want 0 after run reset", got)
	}
}

func TestMultipleFaceDebounce(t *testing.T) {
	s, _, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()

	for i := 0; i < DefaultPolicy().MultiFaceFrames; i++ {
		m.ObserveFrame(2)
	}
	snap := s.Snapshot()
	if snap.Violations[ViolationMultipleFace] != 1 {
		t.Fatalf("ledger[MultipleFace] = %d, want 1", snap.Violations[ViolationMultipleFace])
	}
	if snap.Lock.Reason != ViolationMultipleFace {
		t.Errorf("lock reason = %s, want MultipleFace", snap.Lock.Reason)
	}
}

// ─── Voice signal ───────────────────────────────────────────────────

func TestVoiceRaisedOnThresholdCrossing(t *testing.T) {
	p := DefaultPolicy()
	p.VoiceWindow = 4
	s, _, _, _ := newMonitorSession(t, p)
	m := s.Monitor()

	// Quiet samples keep the average low.
	for i := 0; i < 8; i++ {
		m.ObserveAudioLevel(10)
	}
	if got := s.Snapshot().Violations[ViolationVoice]; got != 0 {
		t.Fatalf("voice raised on quiet audio")
	}

	// Loud samples push the rolling average over the threshold once.
	for i := 0; i < 8; i++ {
		m.ObserveAudioLevel(200)
	}
	if got := s.Snapshot().Violations[ViolationVoice]; got != 1 {
		t.Fatalf("ledger[Voice] = %d, want 1 (single crossing)", got)
	}

	// Drop below, then cross again: re-armed.
	for i := 0; i < 8; i++ {
		m.ObserveAudioLevel(10)
	}
	for i := 0; i < 8; i++ {
		m.ObserveAudioLevel(200)
	}
	if got := s.Snapshot().Violations[ViolationVoice]; got != 2 {
		t.Errorf("ledger[Voice] = %d, want 2 after re-crossing", got)
	}
}

// ─── Tab switches ───────────────────────────────────────────────────

func TestTabSwitchLocksImmediately(t *testing.T) {
	s, client, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()

	m.ObserveVisibility(true)
	snap := s.Snapshot()
	if !snap.Lock.Locked || snap.Lock.Reason != ViolationTabSwitch {
		t.Fatalf("lock = %+v, want immediate TabSwitch lock", snap.Lock)
	}
	if snap.TabSwitchCount != 1 || snap.Violations[ViolationTabSwitch] != 1 {
		t.Errorf("counts = %d/%d, want 1/1", snap.TabSwitchCount, snap.Violations[ViolationTabSwitch])
	}

	// Becoming visible again is not a signal.
	m.ObserveVisibility(false)
	if got := s.Snapshot().TabSwitchCount; got != 1 {
		t.Errorf("tab switches = %d after visibility restore, want 1", got)
	}

	// Every occurrence locks again, no debounce, even back to back.
	s.FullscreenEntered()
	m.ObserveBlur()
	if client.locks() != 2 {
		t.Errorf("lock overlay shown %d times, want 2", client.locks())
	}
}

func TestTabSwitchEscalationForcesSubmit(t *testing.T) {
	s, _, submitter, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()

	for i := 0; i < 4; i++ {
		m.ObserveBlur()
	}
	if submitter.callCount() != 0 {
		t.Fatal("submitted before reaching the tab-switch limit")
	}
	if got := s.Snapshot().Remaining; got == 0 {
		t.Fatal("time should remain on the clock")
	}

	m.ObserveBlur() // fifth strike

	if submitter.callCount() != 1 {
		t.Fatalf("submitter calls = %d, want 1 after fifth tab switch", submitter.callCount())
	}
	if got := s.Snapshot().StateName; got != "SUBMITTED" {
		t.Errorf("state = %s, want SUBMITTED", got)
	}
}

// ─── Lock cooldown ──────────────────────────────────────────────────

func raiseNoFace(m *Monitor) {
	for i := 0; i < m.s.policy.NoFaceFrames; i++ {
		m.ObserveFrame(0)
	}
}

func TestLockCooldownSuppressesSecondLock(t *testing.T) {
	s, client, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()
	base := time.Now()

	setClock(s, base)
	raiseNoFace(m)
	s.FullscreenEntered() // student recovers

	setClock(s, base.Add(5*time.Second))
	raiseNoFace(m)

	snap := s.Snapshot()
	if snap.Violations[ViolationNoFace] != 2 {
		t.Fatalf("ledger[NoFace] = %d, want 2 (violations still recorded)", snap.Violations[ViolationNoFace])
	}
	if client.locks() != 1 {
		t.Fatalf("lock transitions = %d, want 1 (second suppressed by cooldown)", client.locks())
	}

	setClock(s, base.Add(20*time.Second))
	raiseNoFace(m)
	if client.locks() != 2 {
		t.Errorf("lock transitions = %d, want 2 after cooldown elapsed", client.locks())
	}
}

func TestSharedCooldownCouplesKinds(t *testing.T) {
	s, client, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()
	base := time.Now()

	setClock(s, base)
	raiseNoFace(m)
	s.FullscreenEntered()

	// A MultipleFace violation inside the shared window must not lock.
	setClock(s, base.Add(5*time.Second))
	for i := 0; i < DefaultPolicy().MultiFaceFrames; i++ {
		m.ObserveFrame(3)
	}
	if client.locks() != 1 {
		t.Errorf("lock transitions = %d, want 1 (shared window couples kinds)", client.locks())
	}
}

func TestPerKindCooldownDecouplesKinds(t *testing.T) {
	p := DefaultPolicy()
	p.PerKindCooldown = true
	s, client, _, _ := newMonitorSession(t, p)
	m := s.Monitor()
	base := time.Now()

	setClock(s, base)
	raiseNoFace(m)
	s.FullscreenEntered()

	setClock(s, base.Add(5*time.Second))
	for i := 0; i < p.MultiFaceFrames; i++ {
		m.ObserveFrame(3)
	}
	if client.locks() != 2 {
		t.Errorf("lock transitions = %d, want 2 with per-kind cooldown", client.locks())
	}
}

// ─── Media permissions ──────────────────────────────────────────────

func TestMediaDeniedFailsOpenWithWarning(t *testing.T) {
	s, client, _, _ := newMonitorSession(t, DefaultPolicy())

	s.Monitor().MediaDenied("camera")

	snap := s.Snapshot()
	if snap.Lock.Locked {
		t.Error("default policy must fail open, not lock")
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.warnings) != 1 {
		t.Errorf("warnings = %v, want one persistent warning", client.warnings)
	}
}

func TestMediaDeniedStrictModeLocks(t *testing.T) {
	p := DefaultPolicy()
	p.StrictPermissions = true
	s, _, _, _ := newMonitorSession(t, p)

	s.Monitor().MediaDenied("microphone")

	snap := s.Snapshot()
	if !snap.Lock.Locked || snap.Lock.Reason != ViolationVoice {
		t.Errorf("lock = %+v, want strict-mode lock for microphone denial", snap.Lock)
	}
}

// ─── Monitor lifecycle ──────────────────────────────────────────────

func TestSignalsIgnoredAfterSubmission(t *testing.T) {
	s, _, _, _ := newMonitorSession(t, DefaultPolicy())
	m := s.Monitor()
	s.RequestSubmit(false)

	m.ObserveBlur()
	raiseNoFace(m)
	m.ObserveAudioLevel(250)

	snap := s.Snapshot()
	for _, k := range Kinds {
		if snap.Violations[k] != 0 {
			t.Errorf("ledger[%s] = %d after submission, want 0", k, snap.Violations[k])
		}
	}
	if snap.TabSwitchCount != 0 {
		t.Errorf("tab switches mutated after submission: %d", snap.TabSwitchCount)
	}
}
