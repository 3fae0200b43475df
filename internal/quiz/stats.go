package quiz

import "time"

// TopicProgress aggregates a user's completed attempts for one topic.
type TopicProgress struct {
	Topic         string  `json:"topic"`
	TotalAttempts int     `json:"total_attempts"`
	AvgScore      float64 `json:"avg_score"`
	MaxScore      float64 `json:"max_score"`
	MinScore      float64 `json:"min_score"`
}

// PerformanceEntry is one row of the recent-attempts history.
type PerformanceEntry struct {
	AttemptID       string    `json:"attempt_id"`
	QuizID          string    `json:"quiz_id"`
	QuizTitle       string    `json:"quiz_title"`
	Topic           string    `json:"topic"`
	DifficultyLevel int       `json:"difficulty_level"`
	Score           float64   `json:"score"`
	CompletedAt     time.Time `json:"completed_at"`
}

// SummaryStats is the headline numbers for a user's study activity.
type SummaryStats struct {
	TotalQuizzes           int     `json:"total_quizzes"`
	TotalCompletedAttempts int     `json:"total_completed_attempts"`
	AvgScore               float64 `json:"avg_score"`
	BestScore              float64 `json:"best_score"`
	UniqueTopics           int     `json:"unique_topics_studied"`
}
