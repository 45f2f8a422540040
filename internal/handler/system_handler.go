package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/response"
)

// SystemHandler serves health and operational visibility endpoints.
type SystemHandler struct {
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /api/v1/health
// Liveness plus persistence queue depths. A growing queue depth means the
// workers are behind or the DB is down.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	violationDepth, err := h.rdb.LLen(ctx, config.WorkerKey.PersistViolationsQueue).Result()
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	resultDepth, _ := h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()

	response.Success(c, http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"queues": gin.H{
			"persist_violations": violationDepth,
			"persist_results":    resultDepth,
		},
	})
}
