package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRequest describes what to ask the external generator for.
type GenerateRequest struct {
	SourceText string
	Topic      string // "general" or a specific topic
	Difficulty int    // 1-5
	Size       int    // requested question count; soft cap
}

// Generator is the external text-generation provider. It is untrusted and
// possibly slow; the context bounds the call. Implementations return the
// raw response body, which may be non-JSON or fenced markdown.
type Generator interface {
	GenerateQuiz(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) ([]byte, error)

func (f GeneratorFunc) GenerateQuiz(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return f(ctx, req)
}

// Builder orchestrates generator → validator → persisted Quiz.
type Builder struct {
	gen   Generator
	store Store
}

func NewBuilder(gen Generator, store Store) *Builder {
	return &Builder{gen: gen, store: store}
}

// MaxQuestions caps how many questions a single quiz may hold.
const MaxQuestions = 30

// Build invokes the generator, validates its output, and persists the
// resulting quiz. Any generator failure or unusable payload surfaces as a
// *GenerationError; there is no fallback content and no retry — a
// partially-hallucinated quiz is worse than a clear failure. Size is a
// soft cap: fewer surviving questions than requested still builds a quiz.
func (b *Builder) Build(ctx context.Context, ownerID, title string, req GenerateRequest) (Quiz, error) {
	if req.Size < 1 || req.Size > MaxQuestions {
		req.Size = 10
	}
	req.Difficulty = ClampDifficulty(req.Difficulty)

	raw, err := b.gen.GenerateQuiz(ctx, req)
	if err != nil {
		return Quiz{}, &GenerationError{Err: err}
	}

	var payload any
	if err := json.Unmarshal(stripCodeFences(raw), &payload); err != nil {
		return Quiz{}, &GenerationError{Err: fmt.Errorf("parse generator output: %w", err)}
	}

	qs, err := Validate(payload)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return Quiz{}, &GenerationError{Err: err}
		}
		return Quiz{}, err
	}
	if len(qs) > req.Size {
		qs = qs[:req.Size]
	}

	if t := payloadTitle(payload); title == "" && t != "" {
		title = t
	}
	if title == "" {
		title = fmt.Sprintf("Quiz on %s", req.Topic)
	}
	if len(title) > 200 {
		title = title[:200]
	}

	q := Quiz{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Title:           title,
		Topic:           req.Topic,
		DifficultyLevel: req.Difficulty,
		CreatedAt:       time.Now().UTC(),
		Questions:       qs,
	}
	if err := b.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// Models love to wrap JSON in markdown fences even when told not to.
var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return []byte(m[1])
	}
	return []byte(s)
}

func payloadTitle(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	t, _ := normalizeKeys(m)["title"].(string)
	return strings.TrimSpace(t)
}
