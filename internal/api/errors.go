package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/store"
	"github.com/abhisek/skillpath/internal/tutor"
)

// ErrBadRequest marks malformed input rejected before reaching the tutor.
var ErrBadRequest = errors.New("bad request")

// fail maps a tutor or store error to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var rl *tutor.RateLimitError
	switch {
	case errors.As(err, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, tutor.ErrInvalidAttempt),
		errors.Is(err, tutor.ErrInvalidGraph):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, tutor.ErrUnknownNode):
		writeError(w, http.StatusNotFound, "unknown_node", err)
	case errors.Is(err, tutor.ErrUnknownExercise):
		writeError(w, http.StatusGone, "unknown_exercise", err)
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
