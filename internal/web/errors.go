package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"trading-journal/internal/auth"
	"trading-journal/internal/editor"
	"trading-journal/internal/imaging"
	"trading-journal/internal/journal"
	"trading-journal/internal/repository"
)

// errBadRequest marks malformed query or form input.
var errBadRequest = errors.New("bad request")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *editor.ValidationError
	var ierr *auth.InputError
	switch {
	case errors.As(err, &verr), errors.As(err, &ierr):
		return http.StatusBadRequest
	case errors.Is(err, errBadRequest),
		errors.Is(err, journal.ErrUnknownTab),
		errors.Is(err, editor.ErrNotImage),
		errors.Is(err, imaging.ErrTooLarge),
		errors.Is(err, imaging.ErrUnsupported):
		return http.StatusBadRequest
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, editor.ErrDeleteNotConfirmed),
		errors.Is(err, editor.ErrSubmitting):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal failures are logged by
// loggerMiddleware and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	var verr *editor.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	var ierr *auth.InputError
	if errors.As(err, &ierr) {
		body["field"] = ierr.Field
	}
	c.AbortWithStatusJSON(status, body)
}
