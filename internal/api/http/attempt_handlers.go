package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/studyforge/studyforge/internal/auth/middleware"
	"github.com/studyforge/studyforge/internal/quiz"
)

// POST /attempts  { "quiz_id": "..." }
// Starts an attempt with a fresh per-attempt option randomization and
// returns the presentation to render. Correct labels stay server-side.
func StartAttemptHandler(engine *quiz.Engine, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		q, err := store.GetQuiz(r.Context(), req.QuizID)
		if err != nil {
			writeError(w, err)
			return
		}
		if q.OwnerID != userID {
			writeError(w, quiz.ErrQuizNotFound)
			return
		}
		a, rendered, err := engine.StartAttempt(r.Context(), q, userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":                   a.ID,
			"quiz_id":              a.QuizID,
			"started_at":           a.StartedAt,
			"randomized_questions": rendered,
		})
	}
}

// POST /attempts/{attemptID}/answer  { "question_index": 0, "selected_option": "A" }
// Records the answer and returns immediate feedback with the correct
// label for this attempt plus the explanation.
func AnswerHandler(engine *quiz.Engine, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionIndex  int    `json:"question_index"`
			SelectedOption string `json:"selected_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		selected := quiz.Label(strings.ToUpper(strings.TrimSpace(req.SelectedOption)))
		if selected == "" {
			http.Error(w, "selected_option required", http.StatusBadRequest)
			return
		}
		a, ok := loadOwnedAttempt(w, r, store)
		if !ok {
			return
		}
		isCorrect, scoreSoFar, err := engine.RecordAnswer(r.Context(), a.ID, req.QuestionIndex, selected)
		if err != nil {
			writeError(w, err)
			return
		}
		feedback := map[string]any{
			"is_correct":      isCorrect,
			"selected_option": selected,
			"correct_option":  a.CorrectAnswers[req.QuestionIndex],
			"score_so_far":    scoreSoFar,
		}
		if q, err := store.GetQuiz(r.Context(), a.QuizID); err == nil && req.QuestionIndex < len(q.Questions) {
			feedback["explanation"] = q.Questions[req.QuestionIndex].Explanation
		}
		writeJSON(w, http.StatusOK, feedback)
	}
}

// POST /attempts/{attemptID}/complete
func CompleteAttemptHandler(engine *quiz.Engine, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadOwnedAttempt(w, r, store)
		if !ok {
			return
		}
		done, err := engine.CompleteAttempt(r.Context(), a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, done)
	}
}

// GET /attempts/{attemptID}/results
func ResultsHandler(engine *quiz.Engine, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadOwnedAttempt(w, r, store)
		if !ok {
			return
		}
		res, err := engine.BuildResults(r.Context(), a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func loadOwnedAttempt(w http.ResponseWriter, r *http.Request, store quiz.Store) (quiz.Attempt, bool) {
	a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, err)
		return quiz.Attempt{}, false
	}
	if a.UserID != auth.SubjectFromContext(r.Context()) {
		writeError(w, quiz.ErrAttemptNotFound)
		return quiz.Attempt{}, false
	}
	return a, true
}
