package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
	"github.com/proctorly/proctorly-backend/internal/validator"
)

// QuizHandler handles teacher-facing quiz authoring endpoints.
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService) *QuizHandler {
	return &QuizHandler{quizService: quizService, attemptService: attemptService}
}

// List godoc
// GET /api/v1/teacher/quizzes
func (h *QuizHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, perPage := parsePagination(c)

	quizzes, total, err := h.quizService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/teacher/quizzes/:quiz_id
func (h *QuizHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Create godoc
// POST /api/v1/teacher/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// Update godoc
// PUT /api/v1/teacher/quizzes/:quiz_id
func (h *QuizHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), quizID, claims.UserID, &req)
	if err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Publish godoc
// POST /api/v1/teacher/quizzes/:quiz_id/publish
func (h *QuizHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Publish(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Archive godoc
// POST /api/v1/teacher/quizzes/:quiz_id/archive
func (h *QuizHandler) Archive(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	if err := h.quizService.Archive(c.Request.Context(), quizID, claims.UserID); err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Delete godoc
// DELETE /api/v1/teacher/quizzes/:quiz_id
func (h *QuizHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID, claims.UserID); err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListQuestions godoc
// GET /api/v1/teacher/quizzes/:quiz_id/questions
// Full question set, answers and explanations included.
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	questions, err := h.quizService.GetQuestions(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/teacher/quizzes/:quiz_id/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), quizID, claims.UserID, &req)
	if err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/teacher/quizzes/:quiz_id/questions
// Swaps the whole question set, e.g. when accepting a generated batch.
func (h *QuizHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.quizService.ReplaceQuestions(c.Request.Context(), quizID, claims.UserID, &req); err != nil {
		failQuizError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/teacher/quizzes/:quiz_id/results
func (h *QuizHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}

	// Ownership check piggybacks on Get.
	if _, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID); err != nil {
		failQuizError(c, err)
		return
	}

	page, perPage := parsePagination(c)
	results, total, err := h.attemptService.ListResults(c.Request.Context(), quizID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, buildPagination(page, perPage, total))
}

// ─── Shared helpers ─────────────────────────────────────────────────

func parseQuizID(c *gin.Context) (uuid.UUID, bool) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return quizID, true
}

func parsePagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func buildPagination(page, perPage int, total int64) *response.Pagination {
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}
}

func failQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotQuizAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
	case errors.Is(err, service.ErrQuizNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotDraft)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	}
}
