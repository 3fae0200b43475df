package genai

import (
	"fmt"

	"github.com/studyforge/studyforge/internal/quiz"
)

// maxSourceChars bounds how much source text goes into the prompt.
const maxSourceChars = 8000

var difficultyDesc = map[int]string{
	1: "very easy, basic concepts",
	2: "easy, direct recall of information",
	3: "medium, requires comprehension",
	4: "hard, requires analysis",
	5: "very hard, requires synthesis and evaluation",
}

func quizPrompts(req quiz.GenerateRequest) (system, user string) {
	difficulty, ok := difficultyDesc[req.Difficulty]
	if !ok {
		difficulty = difficultyDesc[3]
	}
	topic := "covering the overall content"
	if req.Topic != "" && req.Topic != "general" {
		topic = fmt.Sprintf("about the topic %q", req.Topic)
	}

	system = fmt.Sprintf(`You are an expert author of educational multiple-choice questions.
Generate %d questions %s at difficulty level: %s.

IMPORTANT:
- Each question must have exactly 4 options
- Only one option is correct
- The incorrect options must be plausible
- Include a detailed explanation of why the answer is correct

Respond ONLY with valid JSON in this structure:
{
    "title": "short quiz title",
    "questions": [
        {
            "question": "question text",
            "options": {
                "correct": "the correct alternative",
                "semi-correct": "an almost-correct alternative",
                "incorrect1": "a distractor",
                "incorrect2": "another distractor"
            },
            "explanation": "why the correct answer is correct and the others are not"
        }
    ]
}`, req.Size, topic, difficulty)

	text := req.SourceText
	if len(text) > maxSourceChars {
		text = text[:maxSourceChars]
	}
	user = "Content:\n\n" + text
	return system, user
}
