package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
	"github.com/proctorly/proctorly-backend/internal/validator"
)

// GenerationHandler handles LLM-backed quiz generation and mock interviews.
type GenerationHandler struct {
	generationService *service.GenerationService
	pdfService        *service.PDFService
	log               zerolog.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generationService *service.GenerationService, pdfService *service.PDFService, log zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		pdfService:        pdfService,
		log:               log.With().Str("component", "generation_handler").Logger(),
	}
}

// GenerateFromText godoc
// POST /api/v1/teacher/generate
// Generates a question batch from pasted study material.
func (h *GenerationHandler) GenerateFromText(c *gin.Context) {
	var req model.GenerateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.generationService.Generate(c.Request.Context(), req.SourceText, req.Count, req.Difficulty)
	if err != nil {
		h.failGeneration(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// GenerateFromPDF godoc
// POST /api/v1/teacher/generate/pdf
// Extracts text from an uploaded PDF and generates a question batch.
// Multipart form: file (PDF), count, difficulty.
func (h *GenerationHandler) GenerateFromPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if fileHeader.Size > h.pdfService.MaxBytes() {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	count, err := strconv.Atoi(c.DefaultPostForm("count", "10"))
	if err != nil || count < 1 || count > 50 {
		count = 10
	}
	difficulty := c.PostForm("difficulty")

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	text, err := h.pdfService.ExtractText(file)
	if err != nil {
		h.log.Warn().Err(err).Str("filename", fileHeader.Filename).Msg("PDF extraction failed")
		if errors.Is(err, service.ErrNotPDF) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrSourceTooShort)
		return
	}

	questions, err := h.generationService.Generate(c.Request.Context(), text, count, difficulty)
	if err != nil {
		h.failGeneration(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// StreamInterview godoc
// POST /api/v1/student/interview/stream
// Streams mock-interview Q&A over SSE as the LLM produces it.
func (h *GenerationHandler) StreamInterview(c *gin.Context) {
	var req model.InterviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	err := h.generationService.StreamInterview(c.Request.Context(), &req, func(chunk string) error {
		c.SSEvent("chunk", chunk)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("interview stream aborted")
		c.SSEvent("error", "stream failed")
		c.Writer.Flush()
		return
	}
	c.SSEvent("done", "")
	c.Writer.Flush()
}

func (h *GenerationHandler) failGeneration(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSourceTooShort) {
		response.Fail(c, http.StatusBadRequest, response.ErrSourceTooShort)
		return
	}
	response.Fail(c, http.StatusBadGateway, response.ErrGenerationFailed)
}
