package websocket

// The browser is a signal source, not a decision maker: it reports raw
// observations (face counts, audio levels, visibility flips, fullscreen
// transitions) and renders whatever the server tells it to. All proctoring
// judgment lives server-side.

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionFrame             Action = "frame"
	ActionAudio             Action = "audio"
	ActionVisibility        Action = "visibility"
	ActionBlur              Action = "blur"
	ActionFullscreenEntered Action = "fullscreen_entered"
	ActionFullscreenExited  Action = "fullscreen_exited"
	ActionEscape            Action = "escape"
	ActionInteraction       Action = "interaction"
	ActionMediaDenied       Action = "media_denied"
	ActionMediaGranted      Action = "media_granted"
	ActionAnswer            Action = "answer"
	ActionSubmit            Action = "submit"
	ActionSubmitConfirm     Action = "submit_confirm"
	ActionSubmitCancel      Action = "submit_cancel"
	ActionPing              Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// FrameRequest reports the face count of one analyzed camera frame.
type FrameRequest struct {
	Action Action `json:"action"`
	Faces  int    `json:"faces"`
}

// AudioRequest reports one microphone amplitude sample (0-255).
type AudioRequest struct {
	Action Action `json:"action"`
	Level  int    `json:"level"`
}

// VisibilityRequest reports a document visibility change.
type VisibilityRequest struct {
	Action Action `json:"action"`
	Hidden bool   `json:"hidden"`
}

// MediaRequest reports a camera or microphone permission change.
// Modality is "camera" or "microphone".
type MediaRequest struct {
	Action   Action `json:"action"`
	Modality string `json:"modality"`
}

// AnswerRequest records the student's selection for one question.
type AnswerRequest struct {
	Action        Action `json:"action"`
	QuestionIndex int    `json:"question_index"`
	OptionIndex   int    `json:"option_index"`
}

// SignalRequest covers the payload-free actions: blur, fullscreen
// transitions, escape, interaction, submit, submit_confirm, submit_cancel
// and ping.
type SignalRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState           Event = "state"
	EventLock            Event = "lock"
	EventUnlock          Event = "unlock"
	EventNotice          Event = "notice"
	EventWarn            Event = "warn"
	EventConfirmSubmit   Event = "confirm_submit"
	EventEnterFullscreen Event = "enter_fullscreen"
	EventExitFullscreen  Event = "exit_fullscreen"
	EventReleaseMedia    Event = "release_media"
	EventSubmitting      Event = "submitting"
	EventResults         Event = "results"
	EventSubmitFailed    Event = "submit_failed"
	EventError           Event = "error"
	EventPong            Event = "pong"
)

// StateResponse is the initial snapshot sent on connect so a reloading
// client can restore its view of the session.
type StateResponse struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Answers          []int  `json:"answers"`
	Locked           bool   `json:"locked"`
	LockMessage      string `json:"lock_message,omitempty"`
}

// LockResponse tells the client to show the full-screen lock overlay.
type LockResponse struct {
	Event   Event  `json:"event"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// NoticeResponse carries a violation notice or warning banner text.
type NoticeResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

// ConfirmSubmitResponse asks the client to confirm submission with
// unanswered questions remaining.
type ConfirmSubmitResponse struct {
	Event      Event `json:"event"`
	Unanswered int   `json:"unanswered"`
}

// ResultsResponse delivers the graded result after a successful submit.
type ResultsResponse struct {
	Event  Event       `json:"event"`
	Result interface{} `json:"result"`
}

// SubmitFailedResponse reports a failed submission so the client can
// offer a retry.
type SubmitFailedResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

// SignalResponse covers payload-free events: unlock, enter_fullscreen,
// exit_fullscreen, release_media, submitting and pong.
type SignalResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
