package http

import (
	"net/http"
	"time"

	"knotquiz/internal/app"
	"knotquiz/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries the services and settings the HTTP surface needs.
type RouterConfig struct {
	Quizzes    *app.QuizService
	HighScores *app.HighScoreService
	Sessions   *app.SessionService
	Logger     *zap.Logger
	// Tick is the websocket elapsed-time interval.
	Tick time.Duration
	// RateLimit caps high-score writes per client per minute; zero disables it.
	RateLimit int
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(Recovery(logger), RequestLogger(logger), metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", metrics.Handler())

	quizzes := NewQuizHandler(cfg.Quizzes)
	highScores := NewHighScoreHandler(cfg.HighScores)
	limit := RateLimiter(cfg.RateLimit)

	api := router.Group("/api")
	{
		api.GET("/quizzes", quizzes.List)
		api.GET("/quizzes/:id", quizzes.Get)

		api.POST("/high-scores", limit, highScores.Submit)
		api.GET("/high-scores/:quizId", highScores.List)
		api.GET("/high-scores/:quizId/rank", highScores.Rank)
	}

	if cfg.Sessions != nil {
		sessions := NewSessionHandler(cfg.Sessions)
		ws := NewWSHandler(cfg.Sessions, cfg.Tick, logger)

		group := api.Group("/sessions")
		group.POST("", sessions.Start)
		group.GET("/:id", sessions.Get)
		group.DELETE("/:id", sessions.Discard)
		group.POST("/:id/answer", sessions.Answer)
		group.POST("/:id/advance", sessions.Advance)
		group.POST("/:id/pause", sessions.Pause)
		group.POST("/:id/resume", sessions.Resume)
		group.POST("/:id/retake", sessions.Retake)
		group.POST("/:id/high-score", limit, sessions.SubmitHighScore)
		group.GET("/:id/ws", ws.ServeSession)
	}
	return router
}
