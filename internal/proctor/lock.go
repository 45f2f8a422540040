package proctor

import "time"

// lockNowLocked transitions Unlocked → Locked(reason) and renders the
// blocking overlay. A pending fullscreen re-entry is cancelled so the
// re-entry loop never fights the lock overlay. Caller holds s.mu.
func (s *Session) lockNowLocked(kind ViolationKind) {
	s.stopReentryTimerLocked()
	s.reentryPending = false
	s.lock = LockState{Locked: true, Reason: kind, Message: kind.Message()}
	s.client.ShowLock(kind, kind.Message())
}

// FullscreenEntered is called when the client confirms presentation mode
// was (re-)entered. This is the only transition out of Locked.
func (s *Session) FullscreenEntered() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reentryPending = false
	s.stopReentryTimerLocked()

	if s.lock.Locked {
		s.lock = LockState{}
		s.client.HideLock()
	}
}

// FullscreenExited handles leaving presentation mode outside an explicit
// submit path: schedule a best-effort automatic re-entry after a short
// delay, unless the session is already submitting or locked.
func (s *Session) FullscreenExited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleReentryLocked()
}

// EscapePressed handles inputs that would normally exit presentation mode.
// While active and unlocked they trigger the same re-entry instead of
// being treated as a user-initiated exit.
func (s *Session) EscapePressed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleReentryLocked()
}

// UserInteraction retries a previously refused fullscreen entry. Called on
// any click anywhere in the document; the recovery strategy for
// environments that only allow fullscreen from a user gesture.
func (s *Session) UserInteraction() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reentryPending || s.state != StateInProgress || s.lock.Locked {
		return
	}
	s.reentryPending = false
	if err := s.client.EnterFullscreen(); err != nil {
		s.reentryPending = true
		s.log.Warn().Err(err).Msg("fullscreen retry refused")
	}
}

// scheduleReentryLocked arms the delayed re-entry attempt. Caller holds
// s.mu.
func (s *Session) scheduleReentryLocked() {
	if s.state != StateInProgress || s.lock.Locked || s.reentryTimer != nil {
		return
	}
	s.reentryTimer = time.AfterFunc(s.policy.ReentryDelay, s.attemptReentry)
}

// attemptReentry fires from the re-entry timer. Refusal is never fatal:
// it is logged and left pending for the next user interaction.
func (s *Session) attemptReentry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reentryTimer = nil
	select {
	case <-s.done:
		return
	default:
	}
	if s.state != StateInProgress || s.lock.Locked {
		return
	}
	if err := s.client.EnterFullscreen(); err != nil {
		s.reentryPending = true
		s.log.Warn().Err(err).Msg("fullscreen re-entry refused")
	}
}

// stopReentryTimerLocked cancels a scheduled re-entry. Caller holds s.mu.
func (s *Session) stopReentryTimerLocked() {
	if s.reentryTimer != nil {
		s.reentryTimer.Stop()
		s.reentryTimer = nil
	}
}
