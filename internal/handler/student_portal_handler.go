package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
)

// StudentPortalHandler handles the student-facing quiz lifecycle outside
// the live WebSocket stream: lobby, join, paper and results.
type StudentPortalHandler struct {
	attemptService *service.AttemptService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(attemptService *service.AttemptService) *StudentPortalHandler {
	return &StudentPortalHandler{attemptService: attemptService}
}

// GetLobby godoc
// GET /api/v1/student/quizzes
// Published quizzes with the student's attempt status overlaid.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)

	lobby, err := h.attemptService.GetLobby(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": lobby})
}

// JoinQuiz godoc
// POST /api/v1/student/quizzes/:quiz_id/join
// Creates or resumes the student's attempt. Idempotent.
func (h *StudentPortalHandler) JoinQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Join(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptCompleted):
			// Already done: hand back the stored result reference.
			response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		case errors.Is(err, service.ErrQuizNotAvailable):
			response.Fail(c, http.StatusForbidden, response.ErrQuizNotAvailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetPaper godoc
// GET /api/v1/student/quizzes/:quiz_id/paper
// The redacted question paper for an in-progress attempt.
func (h *StudentPortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	paper, err := h.attemptService.GetPaper(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		case errors.Is(err, service.ErrAttemptCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// GetResult godoc
// GET /api/v1/student/quizzes/:quiz_id/result
// The stored result for a completed attempt, breakdown included.
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetResult(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotFinished)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": attempt})
}

// GetHistory godoc
// GET /api/v1/student/attempts
// All of the student's past attempts.
func (h *StudentPortalHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)

	attempts, err := h.attemptService.ListHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}
