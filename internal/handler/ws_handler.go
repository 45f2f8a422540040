package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/proctor"
	"github.com/proctorly/proctorly-backend/internal/service"
	ws "github.com/proctorly/proctorly-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs the proctored session stream. Each connection feeds raw
// browser signals into the server-side session controller and renders its
// commands back out.
type WSHandler struct {
	cfg            *config.Config
	attemptService *service.AttemptService
	mockService    *service.MockSessionService
	registry       *service.LiveRegistry
	submitter      proctor.Submitter
	telemetry      proctor.TelemetrySink
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	cfg *config.Config,
	attemptService *service.AttemptService,
	mockService *service.MockSessionService,
	registry *service.LiveRegistry,
	submitter proctor.Submitter,
	telemetry proctor.TelemetrySink,
	log zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		cfg:            cfg,
		attemptService: attemptService,
		mockService:    mockService,
		registry:       registry,
		submitter:      submitter,
		telemetry:      telemetry,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(cfg.AllowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/quizzes/:quiz_id/stream
// Upgrades to WebSocket and binds the connection to the student's live
// proctored session, creating one if none exists.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID
	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("quiz_id", quizID.String()).
		Logger()

	if _, err := h.attemptService.Join(c.Request.Context(), quizID, studentID); err != nil {
		if err == service.ErrAttemptCompleted {
			ws.WriteError(conn, "quiz already completed")
		} else {
			ws.WriteError(conn, "quiz is not available")
		}
		return
	}

	client := &wsClient{conn: conn, log: wsLog}

	sess, err := h.attachSession(c.Request.Context(), quizID, studentID, client, wsLog)
	if err != nil {
		wsLog.Error().Err(err).Msg("Failed to build session")
		ws.WriteError(conn, "could not start session")
		return
	}

	wsLog.Info().Msg("Student connected to session stream")
	h.serveSession(conn, sess, client, wsLog)
}

// MockSessionStream godoc
// WS /ws/v1/student/mock-sessions/:session_id/stream
// Binds the connection to a generated practice session. Same controller
// and signal protocol as a scheduled quiz; the graded result goes to
// Redis instead of the attempts table.
func (h *WSHandler) MockSessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID
	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Logger()

	client := &wsClient{conn: conn, log: wsLog}

	sess := h.registry.Get(sessionID.String(), studentID)
	if sess != nil {
		sess.SwapClient(client)
		wsLog.Info().Msg("Reattached to existing session")
	} else {
		material, err := h.mockService.Load(c.Request.Context(), sessionID.String(), studentID)
		if err != nil {
			ws.WriteError(conn, "practice session not found or expired")
			return
		}
		// No telemetry sink: the violations table is keyed to catalog
		// quizzes. The in-session ledger still counts and lands in the
		// result bundle.
		sess, err = h.spawnSession(sessionID.String(), studentID, client,
			material.Questions, material.DurationSeconds, h.mockService.Submitter(), nil, wsLog)
		if err != nil {
			wsLog.Error().Err(err).Msg("Failed to build session")
			ws.WriteError(conn, "could not start session")
			return
		}
	}

	wsLog.Info().Msg("Student connected to practice session stream")
	h.serveSession(conn, sess, client, wsLog)
}

// serveSession sends the restore snapshot and pumps signals until the
// socket drops. The session outlives the connection: the clock keeps
// running and a reconnect reattaches; registry eviction happens through
// the session's teardown hook, socket or no socket.
func (h *WSHandler) serveSession(conn *websocket.Conn, sess *proctor.Session, client *wsClient, wsLog zerolog.Logger) {
	snap := sess.Snapshot()
	client.send(ws.StateResponse{
		Event:            ws.EventState,
		RemainingSeconds: snap.Remaining,
		Answers:          snap.Answers,
		Locked:           snap.Lock.Locked,
		LockMessage:      snap.Lock.Message,
	})

	h.readLoop(conn, sess, client, wsLog)
	wsLog.Info().Msg("Student disconnected from session stream")
}

// attachSession finds the live session for this attempt or builds one.
func (h *WSHandler) attachSession(ctx context.Context, quizID uuid.UUID, studentID int, client *wsClient, wsLog zerolog.Logger) (*proctor.Session, error) {
	if sess := h.registry.Get(quizID.String(), studentID); sess != nil {
		sess.SwapClient(client)
		wsLog.Info().Msg("Reattached to existing session")
		return sess, nil
	}

	questions, durationSeconds, err := h.attemptService.LoadSessionMaterial(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return h.spawnSession(quizID.String(), studentID, client, questions, durationSeconds, h.submitter, h.telemetry, wsLog)
}

// spawnSession registers a new controller for the key. If a racing
// connection registered one first, that controller wins and this client
// is swapped into it.
func (h *WSHandler) spawnSession(
	key string,
	studentID int,
	client *wsClient,
	questions []proctor.Question,
	durationSeconds int,
	submitter proctor.Submitter,
	telemetry proctor.TelemetrySink,
	wsLog zerolog.Logger,
) (*proctor.Session, error) {
	var built *proctor.Session
	sess, created, err := h.registry.GetOrCreate(key, studentID, func() (*proctor.Session, error) {
		s, err := proctor.New(proctor.Config{
			QuizID:          key,
			StudentID:       studentID,
			Questions:       questions,
			DurationSeconds: durationSeconds,
			Policy:          h.buildPolicy(),
			Client:          client,
			Submitter:       submitter,
			Telemetry:       telemetry,
			Logger:          h.log,
			// Every exit path runs this, so the registry only ever holds
			// live controllers even when no socket is attached.
			OnTeardown: func() { h.registry.Remove(key, studentID, built) },
		})
		if err != nil {
			return nil, err
		}
		built = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if !created {
		sess.SwapClient(client)
		wsLog.Info().Msg("Reattached to existing session")
		return sess, nil
	}

	// Background context: the session clock must survive this connection.
	sess.Start(context.Background())
	return sess, nil
}

func (h *WSHandler) buildPolicy() proctor.Policy {
	policy := proctor.DefaultPolicy()
	policy.LockCooldown = time.Duration(h.cfg.ProctorLockCooldownSec) * time.Second
	policy.MaxTabSwitches = h.cfg.ProctorMaxTabSwitches
	policy.PerKindCooldown = h.cfg.ProctorPerKindCooldown
	policy.StrictPermissions = h.cfg.ProctorStrictPermissions
	policy.SecondsPerQuestion = h.cfg.ProctorSecondsPerQuestion
	policy.MinDurationSeconds = h.cfg.ProctorMinDurationSec
	return policy
}

// readLoop dispatches incoming signals until the connection drops.
func (h *WSHandler) readLoop(conn *websocket.Conn, sess *proctor.Session, client *wsClient, wsLog zerolog.Logger) {
	for {
		conn.SetReadDeadline(time.Now().Add(ws.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			ws.WriteError(conn, "malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionFrame:
			var msg ws.FrameRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.Monitor().ObserveFrame(msg.Faces)
			}
		case ws.ActionAudio:
			var msg ws.AudioRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.Monitor().ObserveAudioLevel(float64(msg.Level))
			}
		case ws.ActionVisibility:
			var msg ws.VisibilityRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.Monitor().ObserveVisibility(msg.Hidden)
			}
		case ws.ActionBlur:
			sess.Monitor().ObserveBlur()
		case ws.ActionFullscreenEntered:
			sess.FullscreenEntered()
		case ws.ActionFullscreenExited:
			sess.FullscreenExited()
		case ws.ActionEscape:
			sess.EscapePressed()
		case ws.ActionInteraction:
			sess.UserInteraction()
		case ws.ActionMediaDenied:
			var msg ws.MediaRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.Monitor().MediaDenied(msg.Modality)
			}
		case ws.ActionMediaGranted:
			var msg ws.MediaRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.Monitor().MediaGranted(msg.Modality)
			}
		case ws.ActionAnswer:
			var msg ws.AnswerRequest
			if err := json.Unmarshal(raw, &msg); err == nil {
				sess.SelectAnswer(msg.QuestionIndex, msg.OptionIndex)
			}
		case ws.ActionSubmit:
			sess.RequestSubmit(true)
		case ws.ActionSubmitConfirm:
			sess.ConfirmPendingSubmit()
		case ws.ActionSubmitCancel:
			sess.CancelPendingSubmit()
		case ws.ActionPing:
			client.send(ws.SignalResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(envelope.Action))
		}
	}
}

// ─── proctor.Client over a WebSocket connection ─────────────────────

// wsClient renders session controller commands to the browser. The write
// mutex serializes sends: the clock goroutine, re-entry timer and read
// loop all call into it.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  zerolog.Logger
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ws.WriteTyped(c.conn, v); err != nil {
		c.log.Debug().Err(err).Msg("ws send failed")
		return err
	}
	return nil
}

func (c *wsClient) ShowLock(reason proctor.ViolationKind, message string) {
	c.send(ws.LockResponse{Event: ws.EventLock, Reason: string(reason), Message: message})
}

func (c *wsClient) HideLock() {
	c.send(ws.SignalResponse{Event: ws.EventUnlock})
}

func (c *wsClient) Notice(kind proctor.ViolationKind, message string) {
	c.send(ws.NoticeResponse{Event: ws.EventNotice, Message: message})
}

func (c *wsClient) Warn(message string) {
	c.send(ws.NoticeResponse{Event: ws.EventWarn, Message: message})
}

func (c *wsClient) ConfirmSubmit(unanswered int) {
	c.send(ws.ConfirmSubmitResponse{Event: ws.EventConfirmSubmit, Unanswered: unanswered})
}

// EnterFullscreen sends the command; a write failure surfaces as a refusal
// so the controller retries on the next user interaction.
func (c *wsClient) EnterFullscreen() error {
	return c.send(ws.SignalResponse{Event: ws.EventEnterFullscreen})
}

func (c *wsClient) ExitFullscreen() {
	c.send(ws.SignalResponse{Event: ws.EventExitFullscreen})
}

func (c *wsClient) ReleaseMedia() {
	c.send(ws.SignalResponse{Event: ws.EventReleaseMedia})
}

func (c *wsClient) ShowSubmitting() {
	c.send(ws.SignalResponse{Event: ws.EventSubmitting})
}

func (c *wsClient) GotoResults(res *proctor.Result) {
	c.send(ws.ResultsResponse{Event: ws.EventResults, Result: res})
}

func (c *wsClient) SubmitFailed(message string) {
	c.send(ws.SubmitFailedResponse{Event: ws.EventSubmitFailed, Message: message})
}
