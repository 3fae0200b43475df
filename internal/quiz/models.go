package quiz

import "time"

// Label is the display identifier an option receives after randomization.
// Labels are attempt-specific: the same question shows a different mapping
// on every attempt.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels in display order.
var Labels = [4]Label{LabelA, LabelB, LabelC, LabelD}

// QuestionSpec is one validated question. Options holds exactly four texts;
// CorrectIndex marks which of them is the correct one. When the generator
// tags options by role (correct / semi-correct / incorrect1 / incorrect2)
// the correct option lands at index 0 and CorrectIndex is 0.
type QuestionSpec struct {
	Prompt      string    `json:"prompt"`
	Options     [4]string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation string    `json:"explanation"`
}

// QuestionSet is the validated, generator-independent quiz content.
// Immutable once built.
type QuestionSet []QuestionSpec

// Quiz is a persisted, user-owned quiz definition.
type Quiz struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	Title           string      `json:"title"`
	Topic           string      `json:"topic"`
	DifficultyLevel int         `json:"difficulty_level"` // 1-5
	CreatedAt       time.Time   `json:"created_at"`
	Questions       QuestionSet `json:"questions,omitempty"`
}

// Attempt is one user's run through a quiz. CorrectAnswers holds, per
// question, the label that was randomly assigned to the correct option for
// this attempt. UserAnswers holds the submitted labels; the empty string
// means not answered yet. Version backs the optimistic update protocol in
// the store and never leaves the backend.
type Attempt struct {
	ID             string     `json:"id"`
	QuizID         string     `json:"quiz_id"`
	UserID         string     `json:"user_id"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Score          *float64   `json:"score,omitempty"` // 0-100, set on completion
	CorrectAnswers []Label    `json:"-"`
	UserAnswers    []Label    `json:"user_answers"`
	Version        int64      `json:"-"`
}

// Completed reports whether the attempt reached its terminal state.
func (a Attempt) Completed() bool { return a.CompletedAt != nil }

// Answered reports whether question i has a recorded answer.
func (a Attempt) Answered(i int) bool {
	return i >= 0 && i < len(a.UserAnswers) && a.UserAnswers[i] != ""
}

// Presentation maps display labels to option text for one question.
type Presentation map[Label]string

// RandomizedQuestion is what the client renders during an attempt: the
// prompt plus this attempt's shuffled options. It never carries the
// correct label.
type RandomizedQuestion struct {
	Index   int          `json:"index"`
	Prompt  string       `json:"prompt"`
	Options Presentation `json:"options"`
}

// QuestionResult pairs one question with the labels of a completed attempt.
type QuestionResult struct {
	Prompt        string `json:"prompt"`
	CorrectLabel  Label  `json:"correct_option"`
	SelectedLabel Label  `json:"selected_option,omitempty"` // empty if skipped
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
}

// Results is the reconstructed view of a completed attempt.
type Results struct {
	AttemptID      string           `json:"attempt_id"`
	QuizID         string           `json:"quiz_id"`
	Score          float64          `json:"score"`
	TotalQuestions int              `json:"total_questions"`
	CorrectCount   int              `json:"correct_answers"`
	IncorrectCount int              `json:"incorrect_answers"`
	CompletedAt    time.Time        `json:"completed_at"`
	Questions      []QuestionResult `json:"questions"`
}
