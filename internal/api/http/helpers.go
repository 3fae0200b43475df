package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/studyforge/studyforge/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errStatus(err))
}

// errStatus maps core errors onto HTTP classes: generator trouble is a
// service-unavailable condition, state-machine violations are client
// errors.
func errStatus(err error) int {
	var genErr *quiz.GenerationError
	var valErr *quiz.ValidationError
	switch {
	case errors.As(err, &genErr), errors.As(err, &valErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, quiz.ErrQuizNotFound), errors.Is(err, quiz.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrAlreadyAnswered), errors.Is(err, quiz.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrOutOfRange),
		errors.Is(err, quiz.ErrNotCompleted),
		errors.Is(err, quiz.ErrNoAnswers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
