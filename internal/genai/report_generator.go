package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"certprep-service/internal/domain"
)

// ReportGenerator enriches a finished quiz with per-question explanations and
// a knowledge-gap analysis. Unlike question generation, both operations are
// cosmetic: a reply that fails to parse yields an empty section, not an error.
type ReportGenerator struct {
	client ChatCompleter
	opts   Options
}

func NewReportGenerator(client ChatCompleter, opts Options) *ReportGenerator {
	return &ReportGenerator{client: client, opts: opts}
}

// Explain asks the model to review every graded question. A transport error
// is returned to the caller; an unparseable reply degrades to an empty list.
func (g *ReportGenerator) Explain(ctx context.Context, cert, topic string, questions []domain.QuestionSummary) ([]domain.Explanation, error) {
	prompt := explanationPrompt(cert, topic, questions)

	text, err := complete(ctx, g.client, g.opts, prompt, g.opts.ExplanationMaxTokens)
	if err != nil {
		return nil, err
	}

	var explanations []domain.Explanation
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &explanations); err != nil {
		log.Printf("explanation parse error, returning empty list: %v", err)
		return []domain.Explanation{}, nil
	}
	return explanations, nil
}

// AnalyzeGaps asks the model for a prioritized study plan based on the
// incorrectly answered questions. With nothing incorrect it short-circuits to
// a fixed report without calling the model.
func (g *ReportGenerator) AnalyzeGaps(ctx context.Context, cert, topic string, incorrect []domain.QuestionSummary) (domain.GapReport, error) {
	if len(incorrect) == 0 {
		return domain.GapReport{
			OverallAssessment: "Excellent! You answered all questions correctly.",
			Gaps:              []domain.Gap{},
			Recommendations:   []domain.Recommendation{},
		}, nil
	}

	prompt := gapPrompt(cert, topic, incorrect)

	text, err := complete(ctx, g.client, g.opts, prompt, g.opts.GapMaxTokens)
	if err != nil {
		return domain.GapReport{}, err
	}

	var report domain.GapReport
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &report); err != nil {
		log.Printf("gap analysis parse error, returning empty report: %v", err)
		return domain.GapReport{Gaps: []domain.Gap{}, Recommendations: []domain.Recommendation{}}, nil
	}
	return report, nil
}

func explanationPrompt(cert, topic string, questions []domain.QuestionSummary) string {
	var sb strings.Builder
	for idx, q := range questions {
		status := "INCORRECT"
		if q.IsCorrect {
			status = "CORRECT"
		}
		fmt.Fprintf(&sb, "\nQuestion %d [%s]:\n", idx+1, status)
		fmt.Fprintf(&sb, "Question: %s\n", q.Question)
		sb.WriteString("Options:\n")
		for optIdx, option := range q.Options {
			fmt.Fprintf(&sb, "  %c. %s", 'A'+optIdx, option)
			if q.UserAnswer != nil && optIdx == *q.UserAnswer {
				sb.WriteString(" (User selected)")
			}
			if optIdx == q.CorrectAnswer {
				sb.WriteString(" (Correct)")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return fmt.Sprintf(`You are an expert certification instructor. Analyze the quiz responses below for the %s certification, Topic: %s.

%s

For EACH question that was answered INCORRECTLY, provide:
1. Why the correct answer is correct (detailed explanation)
2. Why the user's selected answer is incorrect (if they selected one)
3. Key concepts to understand

Format your response as a JSON array with this structure:
[
  {
    "question_number": 1,
    "is_correct": false,
    "question_text": "The question",
    "correct_answer": "The correct option text",
    "user_selected": "What the user selected (or null)",
    "explanation": {
      "why_correct": "Detailed explanation of why the correct answer is right",
      "why_incorrect": "Explanation of why the user's answer was incorrect",
      "key_concepts": ["concept1", "concept2", "concept3"]
    }
  }
]

Return ONLY valid JSON array, no additional text.`, cert, topic, sb.String())
}

func gapPrompt(cert, topic string, incorrect []domain.QuestionSummary) string {
	var sb strings.Builder
	for _, q := range incorrect {
		text := q.Question
		if len(text) > 100 {
			text = text[:100] + "..."
		}
		fmt.Fprintf(&sb, "- %s (Topic: %s)\n", text, topic)
	}

	return fmt.Sprintf(`You are a certification advisor for the %s certification.

The user scored incorrectly on these topics within %s:
%s
Based on their incorrect answers, provide:
1. Specific knowledge gaps they should address
2. Recommended learning topics and concepts to study
3. Study priorities (most important first)

Format your response as JSON:
{
  "overall_assessment": "Brief assessment of their knowledge level",
  "gaps": [
    {
      "gap": "Specific knowledge gap",
      "severity": "high/medium/low",
      "concept": "Relevant domain concept",
      "description": "Why this matters for the certification"
    }
  ],
  "recommendations": [
    {
      "topic": "Topic to study",
      "priority": 1,
      "learning_resources": "What to focus on",
      "practice_area": "Specific area to practice"
    }
  ]
}

Return ONLY valid JSON, no additional text.`, cert, topic, sb.String())
}
