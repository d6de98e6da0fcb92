package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"certprep-service/internal/domain"
)

// QuestionGenerator produces multiple-choice questions for a certification
// topic with a single model call. It fails closed: any structural problem in
// the model's reply rejects the whole batch, never a partial list.
type QuestionGenerator struct {
	client ChatCompleter
	opts   Options
}

func NewQuestionGenerator(client ChatCompleter, opts Options) *QuestionGenerator {
	return &QuestionGenerator{client: client, opts: opts}
}

type rawQuestion struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer"`
}

// Generate returns exactly the questions the model produced, validated
// against the strict contract: three required fields, four options, correct
// index in range.
func (g *QuestionGenerator) Generate(ctx context.Context, cert, topic string, count int) ([]domain.QuestionDraft, error) {
	prompt := questionPrompt(cert, topic, count)

	// The ceiling grows with the batch so large quizzes are not truncated.
	maxTokens := g.opts.QuestionMaxTokens
	if scaled := count * 800; scaled > maxTokens {
		maxTokens = scaled
	}

	text, err := complete(ctx, g.client, g.opts, prompt, maxTokens)
	if err != nil {
		return nil, err
	}

	var parsed []rawQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &parsed); err != nil {
		log.Printf("question generation parse error: %v", err)
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	drafts := make([]domain.QuestionDraft, 0, len(parsed))
	for i, q := range parsed {
		if q.Question == nil || q.Options == nil || q.CorrectAnswer == nil {
			return nil, fmt.Errorf("question %d is missing a required field", i+1)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d has %d options, want 4", i+1, len(q.Options))
		}
		if *q.CorrectAnswer < 0 || *q.CorrectAnswer > 3 {
			return nil, fmt.Errorf("question %d has correct_answer %d out of range", i+1, *q.CorrectAnswer)
		}
		drafts = append(drafts, domain.QuestionDraft{
			Text:          *q.Question,
			Options:       q.Options,
			CorrectAnswer: *q.CorrectAnswer,
		})
	}
	return drafts, nil
}

func questionPrompt(cert, topic string, count int) string {
	return fmt.Sprintf(`You are a certification exam expert. Generate %d multiple-choice questions for the %s certification exam, focusing on the topic: %s.

For each question, provide:
1. A clear, exam-style question
2. Exactly 4 answer options (labeled A, B, C, D)
3. The index (0-3) of the correct answer

Format your response as a valid JSON array with this exact structure:
[
  {
    "question": "Question text here?",
    "options": ["Option A text", "Option B text", "Option C text", "Option D text"],
    "correct_answer": 0
  }
]

Requirements:
- Questions should be realistic exam-level difficulty
- Options should be plausible but only one clearly correct
- Cover different aspects of %s
- Return ONLY the JSON array, no additional text

Generate %d questions now:`, count, cert, topic, topic, count)
}
