package domain

// QuestionSummary is one graded question as fed to the report generators.
type QuestionSummary struct {
	Order         int      `json:"order"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	UserAnswer    *int     `json:"user_answer"`
	IsCorrect     bool     `json:"is_correct"`
}

// ExplanationDetail breaks down why an answer was right or wrong.
type ExplanationDetail struct {
	WhyCorrect   string   `json:"why_correct"`
	WhyIncorrect string   `json:"why_incorrect"`
	KeyConcepts  []string `json:"key_concepts"`
}

// Explanation is the model's per-question review entry.
type Explanation struct {
	QuestionNumber int               `json:"question_number"`
	IsCorrect      bool              `json:"is_correct"`
	QuestionText   string            `json:"question_text"`
	CorrectAnswer  string            `json:"correct_answer"`
	UserSelected   *string           `json:"user_selected"`
	Explanation    ExplanationDetail `json:"explanation"`
}

// Gap is one identified knowledge gap tied to a domain concept.
type Gap struct {
	Gap         string `json:"gap"`
	Severity    string `json:"severity"`
	Concept     string `json:"concept"`
	Description string `json:"description"`
}

// Recommendation is one prioritized study suggestion.
type Recommendation struct {
	Topic             string `json:"topic"`
	Priority          int    `json:"priority"`
	LearningResources string `json:"learning_resources"`
	PracticeArea      string `json:"practice_area"`
}

// GapReport aggregates the gap analysis for a finished quiz.
type GapReport struct {
	OverallAssessment string           `json:"overall_assessment"`
	Gaps              []Gap            `json:"gaps"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// FinalScore is the numeric section of a quiz report.
type FinalScore struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// QuizStatistics restates the score as aggregate counters.
type QuizStatistics struct {
	TotalQuestions     int     `json:"total_questions"`
	CorrectAnswers     int     `json:"correct_answers"`
	IncorrectAnswers   int     `json:"incorrect_answers"`
	AccuracyPercentage float64 `json:"accuracy_percentage"`
}

// QuizReport is the full graded report for a finished quiz.
type QuizReport struct {
	QuizID               string          `json:"quiz_id"`
	Username             string          `json:"username"`
	Topic                string          `json:"topic"`
	RecommendedCert      string          `json:"recommended_cert"`
	FinalScore           FinalScore      `json:"final_score"`
	PerformanceBand      PerformanceBand `json:"performance_band"`
	PerformanceSummary   string          `json:"performance_summary"`
	DetailedExplanations []Explanation   `json:"detailed_explanations"`
	KnowledgeGaps        GapReport       `json:"knowledge_gaps"`
	QuizStatistics       QuizStatistics  `json:"quiz_statistics"`
}

// PerformanceBand is the qualitative rating of a percentage score.
type PerformanceBand string

const (
	BandExcellent        PerformanceBand = "excellent"
	BandGood             PerformanceBand = "good"
	BandFair             PerformanceBand = "fair"
	BandNeedsImprovement PerformanceBand = "needs improvement"
)

// BandFor maps a percentage to its band; boundaries are inclusive on the
// lower bound of each band.
func BandFor(percentage float64) PerformanceBand {
	switch {
	case percentage >= 90:
		return BandExcellent
	case percentage >= 75:
		return BandGood
	case percentage >= 60:
		return BandFair
	default:
		return BandNeedsImprovement
	}
}

// Summary returns the user-facing sentence for the band.
func (b PerformanceBand) Summary() string {
	switch b {
	case BandExcellent:
		return "Excellent! You're well-prepared for this topic."
	case BandGood:
		return "Good performance! A few areas to review before the exam."
	case BandFair:
		return "Fair performance. Focus on the knowledge gaps identified below."
	default:
		return "Needs improvement. Review the explanations and study the recommended topics."
	}
}
