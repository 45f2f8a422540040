package proctor

import "time"

// Monitor aggregates raw integrity signals (video frame face counts, audio
// amplitude samples, visibility and focus changes) into discrete violations
// and lock transitions. The signal sources are independent and may
// interleave in any order; every Observe method is atomic under the
// session mutex.
type Monitor struct {
	s *Session

	active bool

	noFaceRun    int
	multiFaceRun int

	voiceLevels []float64
	voiceSum    float64
	voiceHot    bool

	// lastLock implements the shared lock cooldown for the debounced
	// kinds. lastLockByKind is used instead when Policy.PerKindCooldown
	// is set.
	lastLock       time.Time
	lastLockByKind map[ViolationKind]time.Time

	cameraDenied bool
	micDenied    bool
}

func newMonitor(s *Session) *Monitor {
	return &Monitor{
		s:              s,
		active:         true,
		lastLockByKind: make(map[ViolationKind]time.Time),
	}
}

// deactivateLocked stops all signal processing. Caller holds s.mu.
func (m *Monitor) deactivateLocked() {
	m.active = false
}

// ObserveFrame consumes one face-detection result. Violations are
// debounced on consecutive-frame runs; a single clear frame resets both
// runs.
func (m *Monitor) ObserveFrame(faceCount int) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.active || s.state != StateInProgress {
		return
	}

	switch {
	case faceCount == 0:
		m.multiFaceRun = 0
		m.noFaceRun++
		if m.noFaceRun >= s.policy.NoFaceFrames {
			m.noFaceRun = 0
			m.raiseDebouncedLocked(ViolationNoFace)
		}
	case faceCount > 1:
		m.noFaceRun = 0
		m.multiFaceRun++
		if m.multiFaceRun >= s.policy.MultiFaceFrames {
			m.multiFaceRun = 0
			m.raiseDebouncedLocked(ViolationMultipleFace)
		}
	default:
		m.noFaceRun = 0
		m.multiFaceRun = 0
	}
}

// ObserveAudioLevel consumes one amplitude sample (0-255). A violation is
// raised when the rolling average crosses the threshold upward; the
// crossing re-arms once the average falls back below.
func (m *Monitor) ObserveAudioLevel(level float64) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.active || s.state != StateInProgress {
		return
	}

	m.voiceLevels = append(m.voiceLevels, level)
	m.voiceSum += level
	if len(m.voiceLevels) > s.policy.VoiceWindow {
		m.voiceSum -= m.voiceLevels[0]
		m.voiceLevels = m.voiceLevels[1:]
	}

	avg := m.voiceSum / float64(len(m.voiceLevels))
	if avg > s.policy.VoiceThreshold {
		if !m.voiceHot {
			m.voiceHot = true
			m.raiseDebouncedLocked(ViolationVoice)
		}
		return
	}
	m.voiceHot = false
}

// ObserveVisibility consumes a document visibility change. Becoming hidden
// is a tab switch; becoming visible again is not a signal.
func (m *Monitor) ObserveVisibility(hidden bool) {
	if hidden {
		m.tabSwitch()
	}
}

// ObserveBlur consumes a window focus loss, which counts as a tab switch.
func (m *Monitor) ObserveBlur() {
	m.tabSwitch()
}

// tabSwitch raises TabSwitch with no debounce, locks unconditionally, and
// bumps the separate escalation counter. Reaching the escalation limit
// forces submission regardless of lock state or remaining time.
func (m *Monitor) tabSwitch() {
	s := m.s
	s.mu.Lock()
	if !m.active || s.state != StateInProgress {
		s.mu.Unlock()
		return
	}

	s.tabSwitches++
	s.recordViolationLocked(ViolationTabSwitch)
	s.lockNowLocked(ViolationTabSwitch)

	escalate := s.tabSwitches >= s.policy.MaxTabSwitches
	count := s.tabSwitches
	s.mu.Unlock()

	if escalate {
		s.log.Warn().Int("tab_switches", count).Msg("tab-switch limit reached, forcing submission")
		s.submitNow()
	}
}

// MediaDenied reports a camera or microphone permission failure. The
// default policy fails open: the modality simply never produces signals
// and the student sees a persistent warning. Strict mode locks instead.
func (m *Monitor) MediaDenied(modality string) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.active || s.state != StateInProgress {
		return
	}

	kind := ViolationNoFace
	switch modality {
	case "microphone":
		m.micDenied = true
		kind = ViolationVoice
	default:
		m.cameraDenied = true
	}

	if s.policy.StrictPermissions {
		s.lockNowLocked(kind)
		return
	}
	s.client.Warn("Proctoring is limited: " + modality + " access was denied.")
}

// MediaGranted clears a previous denial once the student grants access.
func (m *Monitor) MediaGranted(modality string) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	switch modality {
	case "microphone":
		m.micDenied = false
	default:
		m.cameraDenied = false
	}
}

// raiseDebouncedLocked records the violation unconditionally, then locks
// only when the cooldown since the last debounced lock has elapsed, so an
// ongoing condition cannot storm the lock overlay. Caller holds s.mu.
func (m *Monitor) raiseDebouncedLocked(kind ViolationKind) {
	s := m.s
	s.recordViolationLocked(kind)

	now := s.now()
	if s.policy.PerKindCooldown {
		if last, ok := m.lastLockByKind[kind]; ok && now.Sub(last) < s.policy.LockCooldown {
			return
		}
		m.lastLockByKind[kind] = now
	} else {
		if !m.lastLock.IsZero() && now.Sub(m.lastLock) < s.policy.LockCooldown {
			return
		}
		m.lastLock = now
	}

	s.lockNowLocked(kind)
}
