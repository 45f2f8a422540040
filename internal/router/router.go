package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/handler"
	"github.com/proctorly/proctorly-backend/internal/middleware"
	"github.com/proctorly/proctorly-backend/internal/response"
	"github.com/proctorly/proctorly-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Quiz          *handler.QuizHandler
	StudentPortal *handler.StudentPortalHandler
	Generation    *handler.GenerationHandler
	MockSession   *handler.MockSessionHandler
	Monitor       *handler.MonitorHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. It skips SSE and WebSocket upgrades.
	router.Use(middleware.Brotli())

	// Liveness probe (bare, no queue inspection).
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP) and
	// for LLM-backed generation (10 per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	generateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/register", handlers.Auth.RegisterStudent)
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.GetTeacherProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/quizzes", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/quizzes/:quiz_id/join", handlers.StudentPortal.JoinQuiz)
		studentAPI.GET("/quizzes/:quiz_id/paper", handlers.StudentPortal.GetPaper)
		studentAPI.GET("/quizzes/:quiz_id/result", handlers.StudentPortal.GetResult)
		studentAPI.GET("/attempts", handlers.StudentPortal.GetHistory)

		studentAPI.POST("/mock-sessions", generateLimiter.Middleware(), handlers.MockSession.Create)
		studentAPI.GET("/mock-sessions/:session_id/result", handlers.MockSession.GetResult)

		studentAPI.POST("/interview/stream", generateLimiter.Middleware(), handlers.Generation.StreamInterview)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/quizzes/:quiz_id/stream", handlers.WS.SessionStream)
		ws.GET("/student/mock-sessions/:session_id/stream", handlers.WS.MockSessionStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.GET("/quizzes", handlers.Quiz.List)
		teacherAPI.POST("/quizzes", handlers.Quiz.Create)
		teacherAPI.GET("/quizzes/:quiz_id", handlers.Quiz.Get)
		teacherAPI.PUT("/quizzes/:quiz_id", handlers.Quiz.Update)
		teacherAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.Delete)
		teacherAPI.POST("/quizzes/:quiz_id/publish", handlers.Quiz.Publish)
		teacherAPI.POST("/quizzes/:quiz_id/archive", handlers.Quiz.Archive)

		teacherAPI.GET("/quizzes/:quiz_id/questions", handlers.Quiz.ListQuestions)
		teacherAPI.POST("/quizzes/:quiz_id/questions", handlers.Quiz.AddQuestion)
		teacherAPI.PUT("/quizzes/:quiz_id/questions", handlers.Quiz.ReplaceQuestions)

		teacherAPI.GET("/quizzes/:quiz_id/results", handlers.Quiz.ListResults)
		teacherAPI.GET("/quizzes/:quiz_id/integrity", handlers.Monitor.GetIntegritySnapshot)
		teacherAPI.GET("/quizzes/:quiz_id/integrity/:student_id", handlers.Monitor.GetStudentTimeline)

		teacherAPI.POST("/generate", generateLimiter.Middleware(), handlers.Generation.GenerateFromText)
		teacherAPI.POST("/generate/pdf", generateLimiter.Middleware(), handlers.Generation.GenerateFromPDF)
	}

	// ─── 5. System Group ───────────────────────────────────────────────
	systemAPI := router.Group("/api/v1")
	{
		systemAPI.GET("/system/health", handlers.System.Health)
	}

	return router
}
