package http

import (
	"net/http"

	auth "github.com/studyforge/studyforge/internal/auth/middleware"
	"github.com/studyforge/studyforge/internal/quiz"
)

// GET /stats/progress — per-topic aggregates over completed attempts.
func ProgressHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		byTopic, err := store.TopicProgress(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		total := 0
		var sum float64
		for _, tp := range byTopic {
			total += tp.TotalAttempts
			sum += tp.AvgScore * float64(tp.TotalAttempts)
		}
		avg := 0.0
		if total > 0 {
			avg = sum / float64(total)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"total_attempts":    total,
			"avg_score_overall": avg,
			"progress_by_topic": byTopic,
		})
	}
}

// GET /stats/performance?limit=10 — recent completed attempts.
func PerformanceHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		limit := queryInt(r, "limit", 10)
		entries, err := store.RecentPerformance(r.Context(), userID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recent_attempts": entries})
	}
}

// GET /stats/summary
func SummaryHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		s, err := store.SummaryStats(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
