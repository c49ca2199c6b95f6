package http

import (
	"errors"
	"net/http"

	"knotquiz/internal/app"
	"knotquiz/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case app.IsStateError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody{Error: http.StatusText(status), Message: err.Error()})
}

func badRequest(c *gin.Context, field string, err error) {
	abortWithError(c, &domain.ValidationError{Field: field, Message: err.Error()})
}
