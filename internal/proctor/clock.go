package proctor

import (
	"context"
	"time"
)

// Start launches the countdown clock and makes the initial fullscreen
// request. Cancelling ctx tears the session down (the navigate-away path).
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if err := s.client.EnterFullscreen(); err != nil {
		// Environment refused; retried on the next user interaction.
		s.reentryPending = true
		s.log.Warn().Err(err).Msg("initial fullscreen entry refused")
	}
	s.mu.Unlock()

	go s.runClock(ctx)
}

func (s *Session) runClock(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Teardown()
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick decrements the remaining time by one second. Hitting zero clamps
// and auto-submits without confirmation. Ticks are no-ops the moment
// submission begins, so a tick racing a manual submit cannot
// double-decrement or double-submit.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.mu.Unlock()
		return
	}
	s.remaining = 0
	s.mu.Unlock()

	s.log.Info().Msg("time expired, auto-submitting")
	s.submitNow()
}
