package http

import (
	"net/http"

	"knotquiz/internal/app"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes server-hosted quiz sessions.
type SessionHandler struct {
	sessions *app.SessionService
}

func NewSessionHandler(sessions *app.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type startRequest struct {
	QuizID string `json:"quizId" binding:"required"`
}

type answerRequest struct {
	Answer []string `json:"answer" binding:"required"`
}

type highScoreRequest struct {
	PlayerName string `json:"playerName"`
}

type advanceResponse struct {
	Session app.SessionView `json:"session"`
	Correct bool            `json:"correct"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quizId", err)
		return
	}
	view, err := h.sessions.Start(c.Request.Context(), req.QuizID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	respond(c, view, err)
}

func (h *SessionHandler) Discard(c *gin.Context) {
	if err := h.sessions.Discard(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "answer", err)
		return
	}
	view, err := h.sessions.Select(c.Request.Context(), c.Param("id"), req.Answer)
	respond(c, view, err)
}

func (h *SessionHandler) Advance(c *gin.Context) {
	view, answer, err := h.sessions.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, advanceResponse{Session: view, Correct: answer.Correct})
}

func (h *SessionHandler) Pause(c *gin.Context) {
	view, err := h.sessions.Pause(c.Request.Context(), c.Param("id"))
	respond(c, view, err)
}

func (h *SessionHandler) Resume(c *gin.Context) {
	view, err := h.sessions.Resume(c.Request.Context(), c.Param("id"))
	respond(c, view, err)
}

func (h *SessionHandler) Retake(c *gin.Context) {
	view, err := h.sessions.Retake(c.Request.Context(), c.Param("id"))
	respond(c, view, err)
}

// SubmitHighScore persists a completed session. The global rank is pushed
// to the session view once known.
func (h *SessionHandler) SubmitHighScore(c *gin.Context) {
	var req highScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "playerName", err)
		return
	}
	result, err := h.sessions.SubmitHighScore(c.Request.Context(), c.Param("id"), req.PlayerName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitResponse{Success: true, ID: result.ID})
}

func respond(c *gin.Context, view app.SessionView, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
