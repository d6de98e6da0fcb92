package memory

import (
	"context"
	"sync"

	"certprep-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore, used in tests
// and as the fallback when Redis is not configured.
type QuizStore struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string]map[int]domain.Question
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]map[int]domain.Question),
	}
}

func quizKey(username, quizID string) string {
	return username + "/" + quizID
}

func (s *QuizStore) PutQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quizKey(quiz.Username, quiz.ID)] = quiz
	return nil
}

func (s *QuizStore) GetQuiz(_ context.Context, username, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizKey(username, quizID)]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) IncrementScore(_ context.Context, username, quizID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := quizKey(username, quizID)
	quiz, ok := s.quizzes[key]
	if !ok {
		return 0, domain.ErrQuizNotFound
	}
	quiz.UserScore += delta
	s.quizzes[key] = quiz
	return quiz.UserScore, nil
}

func (s *QuizStore) PutQuestions(_ context.Context, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		byOrder, ok := s.questions[q.QuizID]
		if !ok {
			byOrder = make(map[int]domain.Question)
			s.questions[q.QuizID] = byOrder
		}
		byOrder[q.Order] = q
	}
	return nil
}

func (s *QuizStore) GetQuestion(_ context.Context, quizID string, order int) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[quizID][order]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *QuizStore) GradeQuestion(_ context.Context, quizID string, order int, grade domain.Grade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[quizID][order]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if question.Answered {
		return domain.ErrQuestionAlreadyGraded
	}
	question.Answered = true
	question.UserAnswer = grade.UserAnswer
	question.Correct = grade.Correct
	question.UserScore = grade.Score
	s.questions[quizID][order] = question
	return nil
}

func (s *QuizStore) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byOrder := s.questions[quizID]
	questions := make([]domain.Question, 0, len(byOrder))
	for _, q := range byOrder {
		questions = append(questions, q)
	}
	return questions, nil
}
