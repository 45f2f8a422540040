package proctor

import "context"

// Client drives the student's browser over the session transport. The
// controller calls it to render state transitions; implementations must
// never call back into the session synchronously.
type Client interface {
	// ShowLock renders the full-screen blocking overlay with exactly one
	// recovery action (re-enter fullscreen).
	ShowLock(reason ViolationKind, message string)
	// HideLock removes the overlay after fullscreen re-entry is confirmed.
	HideLock()
	// Notice surfaces a short-lived, auto-dismissing violation notice.
	Notice(kind ViolationKind, message string)
	// Warn surfaces a persistent non-blocking warning (e.g. camera denied).
	Warn(message string)
	// ConfirmSubmit asks the student to confirm a manual submit while
	// questions are still unanswered. The answer comes back through
	// Session.ConfirmPendingSubmit or Session.CancelPendingSubmit.
	ConfirmSubmit(unanswered int)
	// EnterFullscreen requests presentation mode. The environment may
	// refuse; refusal is reported as an error and retried opportunistically.
	EnterFullscreen() error
	// ExitFullscreen leaves presentation mode on the explicit submit path.
	ExitFullscreen()
	// ReleaseMedia releases all camera and microphone tracks.
	ReleaseMedia()
	// ShowSubmitting renders the non-interactive submitting state.
	ShowSubmitting()
	// GotoResults navigates to the results view after a stored submission.
	GotoResults(res *Result)
	// SubmitFailed reports a recoverable submission error with a retry
	// affordance.
	SubmitFailed(message string)
}

// Submitter persists the final result bundle. Called at most once per
// attempt unless it returns an error, which re-opens the session for a
// manual retry.
type Submitter interface {
	Submit(ctx context.Context, res *Result) error
}
