package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
	"github.com/proctorly/proctorly-backend/internal/validator"
)

// MockSessionHandler handles ad-hoc practice sessions generated from
// study material. Creation stages the questions; the proctored run
// happens over the session stream like any scheduled quiz.
type MockSessionHandler struct {
	mockService *service.MockSessionService
	log         zerolog.Logger
}

// NewMockSessionHandler creates a new MockSessionHandler.
func NewMockSessionHandler(mockService *service.MockSessionService, log zerolog.Logger) *MockSessionHandler {
	return &MockSessionHandler{
		mockService: mockService,
		log:         log.With().Str("component", "mock_session_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/student/mock-sessions
// Generates a practice quiz from study material and stages it for the
// session stream.
func (h *MockSessionHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.MockSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	info, err := h.mockService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrSourceTooShort) {
			response.Fail(c, http.StatusBadRequest, response.ErrSourceTooShort)
			return
		}
		h.log.Warn().Err(err).Msg("mock session creation failed")
		response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": info})
}

// GetResult godoc
// GET /api/v1/student/mock-sessions/:session_id/result
// The graded result of a submitted practice session, breakdown included.
func (h *MockSessionHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.mockService.GetResult(c.Request.Context(), sessionID.String(), claims.UserID)
	if err != nil {
		// Staged material still present means the session has not been
		// submitted yet; otherwise it never existed or has expired.
		if _, loadErr := h.mockService.Load(c.Request.Context(), sessionID.String(), claims.UserID); loadErr == nil {
			response.Fail(c, http.StatusConflict, response.ErrMockResultNotReady)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrMockSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
