package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knotquiz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knotquiz_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "knotquiz_sessions_started_total",
		Help: "Quiz sessions started, including retakes",
	})

	SessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "knotquiz_sessions_completed_total",
		Help: "Quiz sessions that reached the last question",
	})

	HighScoreSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knotquiz_high_score_submissions_total",
			Help: "High-score submissions by outcome",
		},
		[]string{"result"},
	)

	QuizCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knotquiz_quiz_cache_lookups_total",
			Help: "Quiz cache lookups by outcome",
		},
		[]string{"cache", "result"},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg once per process.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			SessionsCompleted,
			HighScoreSubmissions,
			QuizCacheLookups,
		)
	})
}

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default prometheus registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
