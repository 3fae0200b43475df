package quiz

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Engine owns the attempt state machine:
//
//	Created ──RecordAnswer──▶ InProgress ──CompleteAttempt──▶ Completed
//
// Completed is terminal. Every mutation goes through the store's
// compare-and-swap update, so concurrent RecordAnswer or CompleteAttempt
// calls on the same attempt resolve to exactly one winner; the loser
// re-reads and observes the state-machine error.
//
// The engine performs no authorization: callers hand it quiz/attempt IDs
// they have already verified belong to the acting user.
type Engine struct {
	store   Store
	newRand func() *rand.Rand // swapped for a seeded source in tests
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, newRand: NewRand}
}

// StartAttempt draws a fresh randomization for every question of the quiz,
// persists the new attempt, and returns it together with the presentation
// the caller renders. The correct-label sequence stays server-side.
func (e *Engine) StartAttempt(ctx context.Context, q Quiz, userID string) (Attempt, []RandomizedQuestion, error) {
	if len(q.Questions) == 0 {
		return Attempt{}, nil, ErrQuizNotFound
	}
	rng := e.newRand()
	correct := make([]Label, len(q.Questions))
	rendered := make([]RandomizedQuestion, len(q.Questions))
	for i, spec := range q.Questions {
		pres, label := Randomize(spec, rng)
		correct[i] = label
		rendered[i] = RandomizedQuestion{Index: i, Prompt: spec.Prompt, Options: pres}
	}
	a := Attempt{
		ID:             uuid.NewString(),
		QuizID:         q.ID,
		UserID:         userID,
		StartedAt:      time.Now().UTC(),
		CorrectAnswers: correct,
		UserAnswers:    make([]Label, len(q.Questions)),
	}
	if err := e.store.PutAttempt(ctx, a); err != nil {
		return Attempt{}, nil, err
	}
	return a, rendered, nil
}

// RecordAnswer records the selected label for one question, at most once
// per question per attempt, and reports whether it was correct plus the
// score accumulated so far (unanswered questions count as wrong, matching
// the final scoring denominator).
func (e *Engine) RecordAnswer(ctx context.Context, attemptID string, index int, selected Label) (bool, float64, error) {
	for {
		a, err := e.store.GetAttempt(ctx, attemptID)
		if err != nil {
			return false, 0, err
		}
		if a.Completed() {
			return false, 0, ErrAlreadyCompleted
		}
		if index < 0 || index >= len(a.CorrectAnswers) {
			return false, 0, ErrOutOfRange
		}
		if a.Answered(index) {
			return false, 0, ErrAlreadyAnswered
		}
		a.UserAnswers[index] = selected
		if err := e.store.UpdateAttempt(ctx, a); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue // someone else touched the row; re-check preconditions
			}
			return false, 0, err
		}
		isCorrect := selected == a.CorrectAnswers[index]
		return isCorrect, scoreOf(a), nil
	}
}

// CompleteAttempt finalizes the attempt: requires at least one answer,
// computes the score over the full question count, and stamps
// completed_at. A second call always fails with ErrAlreadyCompleted.
func (e *Engine) CompleteAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	for {
		a, err := e.store.GetAttempt(ctx, attemptID)
		if err != nil {
			return Attempt{}, err
		}
		if a.Completed() {
			return Attempt{}, ErrAlreadyCompleted
		}
		answered := 0
		for i := range a.UserAnswers {
			if a.Answered(i) {
				answered++
			}
		}
		if answered == 0 {
			return Attempt{}, ErrNoAnswers
		}
		score := scoreOf(a)
		now := time.Now().UTC()
		a.Score = &score
		a.CompletedAt = &now
		if err := e.store.UpdateAttempt(ctx, a); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return Attempt{}, err
		}
		return a, nil
	}
}

// BuildResults reconstructs the per-question view of a completed attempt
// from the stored label mapping, paired against the quiz content by index.
// The aggregates come from the same pass as scoring, so CorrectCount is
// always consistent with the stored score.
func (e *Engine) BuildResults(ctx context.Context, attemptID string) (Results, error) {
	a, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Results{}, err
	}
	if !a.Completed() {
		return Results{}, ErrNotCompleted
	}
	q, err := e.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Results{}, err
	}

	res := Results{
		AttemptID:      a.ID,
		QuizID:         a.QuizID,
		TotalQuestions: len(a.CorrectAnswers),
		CompletedAt:    *a.CompletedAt,
		Questions:      make([]QuestionResult, 0, len(a.CorrectAnswers)),
	}
	for i, correctLabel := range a.CorrectAnswers {
		qr := QuestionResult{
			CorrectLabel:  correctLabel,
			SelectedLabel: a.UserAnswers[i],
			IsCorrect:     a.UserAnswers[i] == correctLabel,
		}
		if i < len(q.Questions) {
			qr.Prompt = q.Questions[i].Prompt
			qr.Explanation = q.Questions[i].Explanation
		}
		if qr.IsCorrect {
			res.CorrectCount++
		}
		res.Questions = append(res.Questions, qr)
	}
	res.IncorrectCount = res.TotalQuestions - res.CorrectCount
	if a.Score != nil {
		res.Score = *a.Score
	}
	return res, nil
}

// scoreOf computes 100 * correct / total over the fixed question count.
// The denominator is never zero: quizzes are non-empty by construction.
func scoreOf(a Attempt) float64 {
	correct := 0
	for i, label := range a.CorrectAnswers {
		if a.UserAnswers[i] == label {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(a.CorrectAnswers))
}
