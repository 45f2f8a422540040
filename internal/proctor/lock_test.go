package proctor

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newLockSession(t *testing.T) (*Session, *fakeClient) {
	t.Helper()
	client := &fakeClient{}
	// Long delay: tests fire attemptReentry directly so the real timer
	// never races them.
	p := DefaultPolicy()
	p.ReentryDelay = time.Hour
	s, err := New(Config{
		QuizID:          "quiz-l",
		StudentID:       5,
		Questions:       testQuestions(2),
		DurationSeconds: 600,
		Policy:          p,
		Client:          client,
		Submitter:       &fakeSubmitter{},
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, client
}

func enterCalls(c *fakeClient) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enterCalls
}

func TestFullscreenExitSchedulesReentry(t *testing.T) {
	s, client := newLockSession(t)

	s.FullscreenExited()
	s.attemptReentry() // fire the timer callback directly

	if enterCalls(client) != 1 {
		t.Fatalf("fullscreen entry attempts = %d, want 1", enterCalls(client))
	}
}

func TestEscapeKeyTriggersReentryNotExit(t *testing.T) {
	s, client := newLockSession(t)

	s.EscapePressed()
	s.attemptReentry()

	if enterCalls(client) != 1 {
		t.Fatalf("fullscreen entry attempts = %d, want 1", enterCalls(client))
	}
	if got := s.Snapshot().StateName; got != "IN_PROGRESS" {
		t.Errorf("state = %s, escape must not end the session", got)
	}
}

func TestNoReentryWhileLocked(t *testing.T) {
	s, client := newLockSession(t)
	s.Monitor().ObserveBlur() // locked

	s.FullscreenExited()
	s.attemptReentry()

	// The lock overlay owns recovery; the re-entry loop must not fight it.
	if enterCalls(client) != 0 {
		t.Errorf("fullscreen entry attempts = %d while locked, want 0", enterCalls(client))
	}
}

func TestNoReentryAfterSubmissionBegins(t *testing.T) {
	s, client := newLockSession(t)
	s.RequestSubmit(false)

	s.FullscreenExited()
	s.attemptReentry()

	if enterCalls(client) != 0 {
		t.Errorf("fullscreen entry attempts = %d after submit, want 0", enterCalls(client))
	}
}

func TestRefusedReentryRetriedOnUserInteraction(t *testing.T) {
	s, client := newLockSession(t)
	client.mu.Lock()
	client.enterErr = errors.New("fullscreen denied")
	client.mu.Unlock()

	s.FullscreenExited()
	s.attemptReentry()
	if enterCalls(client) != 1 {
		t.Fatalf("entry attempts = %d, want 1", enterCalls(client))
	}

	// Still refused on interaction: stays pending.
	s.UserInteraction()
	if enterCalls(client) != 2 {
		t.Fatalf("entry attempts = %d after interaction, want 2", enterCalls(client))
	}

	// Environment relents.
	client.mu.Lock()
	client.enterErr = nil
	client.mu.Unlock()
	s.UserInteraction()
	if enterCalls(client) != 3 {
		t.Fatalf("entry attempts = %d, want 3", enterCalls(client))
	}

	// Pending flag cleared: further interactions do nothing.
	s.UserInteraction()
	if enterCalls(client) != 3 {
		t.Errorf("entry attempts = %d, want no further retries", enterCalls(client))
	}
}

func TestUnlockOnlyViaFullscreenConfirmation(t *testing.T) {
	s, client := newLockSession(t)
	s.Monitor().ObserveBlur()

	if !s.Snapshot().Lock.Locked {
		t.Fatal("expected lock")
	}

	// Nothing else unlocks.
	s.UserInteraction()
	s.CancelPendingSubmit()
	if !s.Snapshot().Lock.Locked {
		t.Fatal("lock cleared without fullscreen confirmation")
	}

	s.FullscreenEntered()
	snap := s.Snapshot()
	if snap.Lock.Locked {
		t.Fatal("lock not cleared by fullscreen confirmation")
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.lockHidden != 1 {
		t.Errorf("overlay hidden %d times, want 1", client.lockHidden)
	}
}

func TestReentryTimerClearedOnTeardown(t *testing.T) {
	s, client := newLockSession(t)

	s.FullscreenExited()
	s.Teardown()

	s.mu.Lock()
	timer := s.reentryTimer
	s.mu.Unlock()
	if timer != nil {
		t.Error("re-entry timer still armed after teardown")
	}

	// A late timer fire is a no-op after teardown.
	s.attemptReentry()
	if enterCalls(client) != 0 {
		t.Errorf("fullscreen entry attempts = %d after teardown, want 0", enterCalls(client))
	}
}
