package http

import (
	"net/http"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizzes *app.QuizService
}

func NewQuizHandler(quizzes *app.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// List serves GET /api/quizzes.
func (h *QuizHandler) List(c *gin.Context) {
	summaries, err := h.quizzes.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if summaries == nil {
		summaries = []domain.QuizSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// Get serves GET /api/quizzes/:id with shuffled questions and options.
func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.quizzes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}
