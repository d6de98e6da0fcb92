package domain

import (
	"strconv"
	"strings"
	"time"
)

// QuizState is derived from grading progress; it is never persisted.
type QuizState int

const (
	StateCreated QuizState = iota
	StateInProgress
	StateComplete
)

// StateOf derives the lifecycle state from how many ordinals are graded.
func StateOf(graded, total int) QuizState {
	switch {
	case graded == 0:
		return StateCreated
	case graded < total:
		return StateInProgress
	default:
		return StateComplete
	}
}

// Quiz is one study session: a fixed set of questions plus a running score.
type Quiz struct {
	ID              string
	Username        string
	Topic           string
	RecommendedCert string
	MaxScore        int
	UserScore       int
	CreatedAt       time.Time
}

// Question is one multiple-choice item, identified by (quiz id, ordinal).
// Grading fields are zero until the question has been answered exactly once.
type Question struct {
	QuizID        string
	Order         int
	Text          string
	Options       []string
	CorrectAnswer int
	Answered      bool
	UserAnswer    int
	Correct       bool
	UserScore     int
}

// Grade carries the fields attached to a question when it is answered.
type Grade struct {
	UserAnswer int
	Correct    bool
	Score      int
}

// QuestionDraft is the model's output for a single generated question.
type QuestionDraft struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// ParseAnswer normalizes a submitted answer to an option index. It accepts
// a single letter A-D (case-insensitive) or a literal integer 0-3.
func ParseAnswer(raw string) (int, error) {
	answer := strings.ToUpper(strings.TrimSpace(raw))
	switch answer {
	case "A":
		return 0, nil
	case "B":
		return 1, nil
	case "C":
		return 2, nil
	case "D":
		return 3, nil
	}
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx > 3 {
		return 0, ErrInvalidAnswer
	}
	return idx, nil
}

// QuestionView is the client-facing shape of a question. CorrectAnswer is
// only populated on the quiz-creation response; advance responses withhold it.
type QuestionView struct {
	Order         int      `json:"order"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correct_answer,omitempty"`
}

// QuizCreation is the response to a create-quiz call.
type QuizCreation struct {
	QuizID             string       `json:"quiz_id"`
	TotalQuestionCount int          `json:"total_question_count"`
	Topic              string       `json:"topic"`
	RecommendedCert    string       `json:"recommended_cert"`
	CurrentQuestion    QuestionView `json:"current_question"`
}

// Progress reports position and running score mid-quiz.
type Progress struct {
	CurrentQuestion int `json:"current_question"`
	TotalQuestions  int `json:"total_questions"`
	CurrentScore    int `json:"current_score"`
}

// AdvanceResult is the response to grading one ordinal. When the quiz is
// complete, FinalScore/MaxScore are set and CurrentQuestion is absent.
type AdvanceResult struct {
	QuizID                  string        `json:"quiz_id"`
	PreviousQuestionCorrect bool          `json:"previous_question_correct"`
	CorrectAnswer           int           `json:"correct_answer"`
	QuizComplete            bool          `json:"quiz_complete"`
	Message                 string        `json:"message,omitempty"`
	FinalScore              *int          `json:"final_score,omitempty"`
	MaxScore                *int          `json:"max_score,omitempty"`
	CurrentQuestion         *QuestionView `json:"current_question,omitempty"`
	Progress                *Progress     `json:"progress,omitempty"`
}

// UserProfile is the per-user record behind the recommendation handlers.
type UserProfile struct {
	Username              string `json:"username"`
	CurrentJobRole        string `json:"currentjobrole,omitempty"`
	AspiringJobRole       string `json:"aspiringjobrole,omitempty"`
	ClearedCertifications string `json:"clearedcertifications,omitempty"`
	InterestAreas         string `json:"interestareas,omitempty"`
	RecommendedCert       string `json:"recommended_cert,omitempty"`
}

// CertInfo describes one certification track.
type CertInfo struct {
	CertificationName string   `json:"CertificationName"`
	Level             string   `json:"level,omitempty"`
	ExamCode          string   `json:"exam_code,omitempty"`
	DurationMinutes   int      `json:"duration_minutes,omitempty"`
	PassingScore      int      `json:"passing_score,omitempty"`
	Domains           []string `json:"domains,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// MessageEntry is one logged line of an agent conversation.
type MessageEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	ShowToUser bool      `json:"show_to_user"`
	Agent      string    `json:"agent,omitempty"`
}
