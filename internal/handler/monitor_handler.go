package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
)

// MonitorHandler serves the teacher's integrity monitoring views.
type MonitorHandler struct {
	monitorService *service.MonitorService
	quizService    *service.QuizService
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService *service.MonitorService, quizService *service.QuizService) *MonitorHandler {
	return &MonitorHandler{monitorService: monitorService, quizService: quizService}
}

// GetIntegritySnapshot godoc
// GET /api/v1/teacher/quizzes/:quiz_id/integrity
// Per-student violation counts for a quiz, plus live session count.
func (h *MonitorHandler) GetIntegritySnapshot(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	if _, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID); err != nil {
		failQuizError(c, err)
		return
	}

	snapshot, err := h.monitorService.GetIntegritySnapshot(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"integrity": snapshot})
}

// GetStudentTimeline godoc
// GET /api/v1/teacher/quizzes/:quiz_id/integrity/:student_id
// One student's chronological violation record for the quiz.
func (h *MonitorHandler) GetStudentTimeline(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID); err != nil {
		failQuizError(c, err)
		return
	}

	timeline, err := h.monitorService.GetStudentTimeline(c.Request.Context(), quizID, studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": timeline})
}
