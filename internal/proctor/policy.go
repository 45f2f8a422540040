package proctor

import "time"

// Policy holds every tunable proctoring threshold. Zero values are never
// valid; construct via DefaultPolicy and override selectively.
type Policy struct {
	// NoFaceFrames is the consecutive empty-frame count before a NoFace
	// violation is raised (~1-2s at typical detector frame rates).
	NoFaceFrames int
	// MultiFaceFrames is the consecutive multi-face frame count before a
	// MultipleFace violation is raised.
	MultiFaceFrames int
	// VoiceThreshold is the rolling average amplitude (0-255 scale) above
	// which a Voice violation is raised.
	VoiceThreshold float64
	// VoiceWindow is the number of samples in the rolling average.
	VoiceWindow int
	// LockCooldown suppresses repeat locks from the debounced kinds
	// (NoFace/MultipleFace/Voice). TabSwitch locks ignore it.
	LockCooldown time.Duration
	// PerKindCooldown applies the cooldown per violation kind instead of
	// the shared window. Off by default: the shared window means a NoFace
	// lock suppresses a MultipleFace lock inside the same cooldown, which
	// matches observed behavior.
	PerKindCooldown bool
	// MaxTabSwitches is the tab-switch count that forces submission.
	MaxTabSwitches int
	// SecondsPerQuestion and MinDurationSeconds size generated sessions.
	SecondsPerQuestion int
	MinDurationSeconds int
	// ReentryDelay is the pause before a best-effort fullscreen re-entry.
	ReentryDelay time.Duration
	// StrictPermissions locks the session while camera/mic access is
	// denied instead of running with that monitor modality inactive.
	StrictPermissions bool
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		NoFaceFrames:       30,
		MultiFaceFrames:    20,
		VoiceThreshold:     70,
		VoiceWindow:        60,
		LockCooldown:       15 * time.Second,
		PerKindCooldown:    false,
		MaxTabSwitches:     5,
		SecondsPerQuestion: 60,
		MinDurationSeconds: 300,
		ReentryDelay:       500 * time.Millisecond,
		StrictPermissions:  false,
	}
}

// GeneratedDuration resolves the time limit for ad-hoc generated sessions:
// a fixed budget per question with a minimum floor. Scheduled quizzes use
// the server-specified limit instead.
func (p Policy) GeneratedDuration(questionCount int) int {
	d := questionCount * p.SecondsPerQuestion
	if d < p.MinDurationSeconds {
		d = p.MinDurationSeconds
	}
	return d
}
