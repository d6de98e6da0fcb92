package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"certprep-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QuizStore abstracts how quiz and question records are stored (in-memory, Redis, etc).
// Methods are single round trips; the service owns all sequencing.
type QuizStore interface {
	PutQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, username, quizID string) (domain.Quiz, error)
	// IncrementScore atomically adds delta to the quiz's running score and
	// returns the new total.
	IncrementScore(ctx context.Context, username, quizID string, delta int) (int, error)
	PutQuestions(ctx context.Context, questions []domain.Question) error
	GetQuestion(ctx context.Context, quizID string, order int) (domain.Question, error)
	// GradeQuestion attaches grading fields to an ungraded question. It returns
	// domain.ErrQuestionAlreadyGraded when the ordinal was graded before.
	GradeQuestion(ctx context.Context, quizID string, order int, grade domain.Grade) error
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// ProfileStore loads user profiles (from Postgres or a static map).
type ProfileStore interface {
	GetProfile(ctx context.Context, username string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, username string, fields map[string]string) (domain.UserProfile, error)
}

// QuestionGenerator produces question drafts via a prompted model call.
type QuestionGenerator interface {
	Generate(ctx context.Context, cert, topic string, count int) ([]domain.QuestionDraft, error)
}

// ReportGenerator produces per-question explanations and a gap analysis.
// Both operations are optional enrichments; callers degrade on failure.
type ReportGenerator interface {
	Explain(ctx context.Context, cert, topic string, questions []domain.QuestionSummary) ([]domain.Explanation, error)
	AnalyzeGaps(ctx context.Context, cert, topic string, incorrect []domain.QuestionSummary) (domain.GapReport, error)
}

// Certification assumed when a profile carries no recommendation yet.
const defaultCertification = "Certified Cloud Practitioner"

// QuizService drives the quiz lifecycle: create, advance, finalize.
type QuizService struct {
	store     QuizStore
	profiles  ProfileStore
	questions QuestionGenerator
	reports   ReportGenerator
	now       func() time.Time
}

func NewQuizService(store QuizStore, profiles ProfileStore, questions QuestionGenerator, reports ReportGenerator) *QuizService {
	return &QuizService{
		store:     store,
		profiles:  profiles,
		questions: questions,
		reports:   reports,
		now:       time.Now,
	}
}

// CreateQuiz generates count questions for the user's recommended
// certification, persists the quiz, and returns the first question. The
// creation response is the only place the correct answer is exposed.
func (s *QuizService) CreateQuiz(ctx context.Context, username, topic string, count int) (domain.QuizCreation, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	profile, err := s.profiles.GetProfile(ctx, username)
	if err != nil {
		return domain.QuizCreation{}, err
	}
	cert := profile.RecommendedCert
	if cert == "" {
		cert = defaultCertification
	}

	log.Printf("generating %d questions for %q on topic %q", count, cert, topic)
	drafts, err := s.questions.Generate(ctx, cert, topic, count)
	if err != nil {
		return domain.QuizCreation{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if len(drafts) == 0 {
		return domain.QuizCreation{}, domain.ErrGenerationFailed
	}

	quiz := domain.Quiz{
		ID:              "quiz-" + uuid.NewString(),
		Username:        username,
		Topic:           topic,
		RecommendedCert: cert,
		MaxScore:        count,
		UserScore:       0,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.PutQuiz(ctx, quiz); err != nil {
		return domain.QuizCreation{}, fmt.Errorf("store quiz: %w", err)
	}

	questions := make([]domain.Question, 0, len(drafts))
	for idx, draft := range drafts {
		questions = append(questions, domain.Question{
			QuizID:        quiz.ID,
			Order:         idx + 1,
			Text:          draft.Text,
			Options:       draft.Options,
			CorrectAnswer: draft.CorrectAnswer,
		})
	}
	if err := s.store.PutQuestions(ctx, questions); err != nil {
		return domain.QuizCreation{}, fmt.Errorf("store questions: %w", err)
	}

	first := questions[0]
	correct := first.CorrectAnswer
	return domain.QuizCreation{
		QuizID:             quiz.ID,
		TotalQuestionCount: count,
		Topic:              topic,
		RecommendedCert:    cert,
		CurrentQuestion: domain.QuestionView{
			Order:         1,
			Question:      first.Text,
			Options:       first.Options,
			CorrectAnswer: &correct,
		},
	}, nil
}

// Advance grades the question at currentOrder, accumulates the score, and
// returns the next question or the completion summary. Once the grading
// write has committed, a later failure is reported without rollback.
func (s *QuizService) Advance(ctx context.Context, quizID, username string, currentOrder int, answer string) (domain.AdvanceResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	answerIdx, err := domain.ParseAnswer(answer)
	if err != nil {
		return domain.AdvanceResult{}, err
	}

	question, err := s.store.GetQuestion(ctx, quizID, currentOrder)
	if err != nil {
		return domain.AdvanceResult{}, fmt.Errorf("question %d for quiz %q: %w", currentOrder, quizID, err)
	}

	isCorrect := answerIdx == question.CorrectAnswer
	awarded := 0
	if isCorrect {
		awarded = 1
	}
	if err := s.store.GradeQuestion(ctx, quizID, currentOrder, domain.Grade{
		UserAnswer: answerIdx,
		Correct:    isCorrect,
		Score:      awarded,
	}); err != nil {
		return domain.AdvanceResult{}, err
	}

	quiz, err := s.store.GetQuiz(ctx, username, quizID)
	if err != nil {
		return domain.AdvanceResult{}, fmt.Errorf("quiz %q: %w", quizID, err)
	}
	newTotal, err := s.store.IncrementScore(ctx, username, quizID, awarded)
	if err != nil {
		return domain.AdvanceResult{}, fmt.Errorf("update quiz score: %w", err)
	}

	result := domain.AdvanceResult{
		QuizID:                  quizID,
		PreviousQuestionCorrect: isCorrect,
		CorrectAnswer:           question.CorrectAnswer,
	}

	nextOrder := currentOrder + 1
	next, err := s.store.GetQuestion(ctx, quizID, nextOrder)
	switch {
	case err == nil:
		result.QuizComplete = false
		result.CurrentQuestion = &domain.QuestionView{
			Order:    nextOrder,
			Question: next.Text,
			Options:  next.Options,
		}
		result.Progress = &domain.Progress{
			CurrentQuestion: nextOrder,
			TotalQuestions:  quiz.MaxScore,
			CurrentScore:    newTotal,
		}
	case isNotFound(err):
		result.QuizComplete = true
		result.Message = fmt.Sprintf("Quiz completed! You've answered all %d questions.", currentOrder)
		result.FinalScore = &newTotal
		maxScore := quiz.MaxScore
		result.MaxScore = &maxScore
	default:
		return domain.AdvanceResult{}, fmt.Errorf("fetch next question: %w", err)
	}
	return result, nil
}

// Finalize aggregates every graded question into a report. The correct count
// is recomputed from the per-question flags; if the quiz record's running
// total disagrees, the recomputed value wins. The two generator calls run
// concurrently and each degrades to an empty section on failure.
func (s *QuizService) Finalize(ctx context.Context, quizID, username string) (domain.QuizReport, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	quiz, err := s.store.GetQuiz(ctx, username, quizID)
	if err != nil {
		return domain.QuizReport{}, fmt.Errorf("quiz %q: %w", quizID, err)
	}

	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.QuizReport{}, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return domain.QuizReport{}, fmt.Errorf("%w: no questions for quiz %q", domain.ErrQuestionNotFound, quizID)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	correctCount := 0
	summaries := make([]domain.QuestionSummary, 0, len(questions))
	incorrect := make([]domain.QuestionSummary, 0, len(questions))
	for _, q := range questions {
		if q.Correct {
			correctCount++
		}
		summary := domain.QuestionSummary{
			Order:         q.Order,
			Question:      q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     q.Correct,
		}
		if q.Answered {
			answer := q.UserAnswer
			summary.UserAnswer = &answer
		}
		summaries = append(summaries, summary)
		if !q.Correct {
			incorrect = append(incorrect, summary)
		}
	}

	var (
		explanations []domain.Explanation
		gaps         domain.GapReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := s.reports.Explain(gctx, quiz.RecommendedCert, quiz.Topic, summaries)
		if err != nil {
			log.Printf("explanations degraded for quiz %s: %v", quizID, err)
			result = []domain.Explanation{}
		}
		explanations = result
		return nil
	})
	g.Go(func() error {
		result, err := s.reports.AnalyzeGaps(gctx, quiz.RecommendedCert, quiz.Topic, incorrect)
		if err != nil {
			log.Printf("gap analysis degraded for quiz %s: %v", quizID, err)
			result = domain.GapReport{Gaps: []domain.Gap{}, Recommendations: []domain.Recommendation{}}
		}
		gaps = result
		return nil
	})
	_ = g.Wait()

	total := quiz.MaxScore
	percentage := 0.0
	if total > 0 {
		percentage = round2(float64(correctCount) / float64(total) * 100)
	}
	band := domain.BandFor(percentage)

	return domain.QuizReport{
		QuizID:          quizID,
		Username:        username,
		Topic:           quiz.Topic,
		RecommendedCert: quiz.RecommendedCert,
		FinalScore: domain.FinalScore{
			Correct:    correctCount,
			Total:      total,
			Percentage: percentage,
		},
		PerformanceBand:      band,
		PerformanceSummary:   band.Summary(),
		DetailedExplanations: explanations,
		KnowledgeGaps:        gaps,
		QuizStatistics: domain.QuizStatistics{
			TotalQuestions:     total,
			CorrectAnswers:     correctCount,
			IncorrectAnswers:   total - correctCount,
			AccuracyPercentage: percentage,
		},
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrQuestionNotFound) || errors.Is(err, domain.ErrQuizNotFound)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
