package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/studyforge/studyforge/internal/auth/middleware"
	"github.com/studyforge/studyforge/internal/quiz"
)

// quizView is the client-facing quiz shape. It never exposes option texts
// outside an attempt: options are stored role-ordered (correct first) and
// only the per-attempt randomization may show them.
type quizView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Topic           string    `json:"topic"`
	DifficultyLevel int       `json:"difficulty_level"`
	NumQuestions    int       `json:"num_questions"`
	CreatedAt       time.Time `json:"created_at"`
	Questions       []string  `json:"questions,omitempty"` // prompts only
}

func toQuizView(q quiz.Quiz, withPrompts bool) quizView {
	v := quizView{
		ID:              q.ID,
		Title:           q.Title,
		Topic:           q.Topic,
		DifficultyLevel: q.DifficultyLevel,
		NumQuestions:    len(q.Questions),
		CreatedAt:       q.CreatedAt,
	}
	if withPrompts {
		for _, spec := range q.Questions {
			v.Questions = append(v.Questions, spec.Prompt)
		}
	}
	return v
}

// POST /quizzes  — generate a quiz from source text. When the client does
// not pin a difficulty, it adapts to the user's recent scores on the topic.
func GenerateQuizHandler(builder *quiz.Builder, store quiz.Store, historyWindow int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SourceText      string `json:"source_text"`
			Topic           string `json:"topic"`
			Title           string `json:"title"`
			MaxQuestions    int    `json:"max_questions"`
			DifficultyLevel int    `json:"difficulty_level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.SourceText) == "" {
			http.Error(w, "source_text required", http.StatusBadRequest)
			return
		}
		userID := auth.SubjectFromContext(r.Context())
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			topic = "general"
		}

		difficulty := req.DifficultyLevel
		if difficulty == 0 {
			scores, err := store.RecentScores(r.Context(), userID, topic, historyWindow)
			if err != nil {
				writeError(w, err)
				return
			}
			difficulty = quiz.EstimateDifficulty(scores, historyWindow)
		}

		q, err := builder.Build(r.Context(), userID, strings.TrimSpace(req.Title), quiz.GenerateRequest{
			SourceText: req.SourceText,
			Topic:      topic,
			Difficulty: difficulty,
			Size:       req.MaxQuestions,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toQuizView(q, true))
	}
}

// GET /quizzes
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		skip := queryInt(r, "skip", 0)
		limit := queryInt(r, "limit", 100)
		quizzes, total, err := store.ListQuizzes(r.Context(), userID, skip, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]quizView, 0, len(quizzes))
		for _, q := range quizzes {
			items = append(items, toQuizView(q, false))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
	}
}

// GET /quizzes/{quizID}
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := loadOwnedQuiz(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toQuizView(q, true))
	}
}

// DELETE /quizzes/{quizID} — cascades to the quiz's attempts.
func DeleteQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := loadOwnedQuiz(w, r, store)
		if !ok {
			return
		}
		if err := store.DeleteQuiz(r.Context(), q.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// loadOwnedQuiz resolves the quiz from the URL and enforces ownership.
// Foreign quizzes read as not-found so existence is not leaked.
func loadOwnedQuiz(w http.ResponseWriter, r *http.Request, store quiz.Store) (quiz.Quiz, bool) {
	q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return quiz.Quiz{}, false
	}
	if q.OwnerID != auth.SubjectFromContext(r.Context()) {
		writeError(w, quiz.ErrQuizNotFound)
		return quiz.Quiz{}, false
	}
	return q, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
