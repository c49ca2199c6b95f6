package http

import (
	"errors"
	"net/http"
	"strconv"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"

	"github.com/gin-gonic/gin"
)

type HighScoreHandler struct {
	highScores *app.HighScoreService
}

func NewHighScoreHandler(highScores *app.HighScoreService) *HighScoreHandler {
	return &HighScoreHandler{highScores: highScores}
}

type submitRequest struct {
	QuizID         string `json:"quizId"`
	PlayerName     string `json:"playerName"`
	Score          *int   `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	ElapsedMs      *int64 `json:"elapsedMs"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Submit serves POST /api/high-scores.
func (h *HighScoreHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	if req.Score == nil {
		badRequest(c, "score", errors.New("is required"))
		return
	}
	if req.ElapsedMs == nil {
		badRequest(c, "elapsedMs", errors.New("is required"))
		return
	}

	run := domain.Run{Score: *req.Score, TimeMs: *req.ElapsedMs}
	entry, err := h.highScores.NewEntry(req.QuizID, req.PlayerName, run, req.TotalQuestions)
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := h.highScores.Submit(c.Request.Context(), entry)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitResponse{Success: true, ID: id})
}

// List serves GET /api/high-scores/:quizId. With order=time the raw entries
// come back fastest first instead of ranked.
func (h *HighScoreHandler) List(c *gin.Context) {
	if c.Query("order") == "time" {
		entries, err := h.highScores.Fastest(c.Request.Context(), c.Param("quizId"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if entries == nil {
			entries = []domain.HighScoreEntry{}
		}
		c.JSON(http.StatusOK, entries)
		return
	}
	standings, err := h.highScores.Leaderboard(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if standings == nil {
		standings = []app.RankedEntry{}
	}
	c.JSON(http.StatusOK, standings)
}

// Rank serves GET /api/high-scores/:quizId/rank?score=&timeMs=.
func (h *HighScoreHandler) Rank(c *gin.Context) {
	score, err := strconv.Atoi(c.Query("score"))
	if err != nil {
		badRequest(c, "score", err)
		return
	}
	timeMs, err := strconv.ParseInt(c.Query("timeMs"), 10, 64)
	if err != nil {
		badRequest(c, "timeMs", err)
		return
	}
	rank, err := h.highScores.GlobalRank(c.Request.Context(), c.Param("quizId"), domain.Run{Score: score, TimeMs: timeMs})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rank)
}
