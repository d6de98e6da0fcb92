package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"certprep-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuizStore persists quiz and question records as Redis hashes:
//
//	HSET {quizPrefix}:{username}:{quizID}      topic/recommended_cert/max_score/user_score/created_at
//	HSET {questionPrefix}:{quizID}:{order}     question/options/correct_answer + grading fields
//	SADD {questionPrefix}:{quizID}:index       {order}
//
// The running score uses HINCRBY, so concurrent advances on the same quiz
// cannot lose an update. The grading write is guarded with HSETNX so an
// ordinal can only be graded once.
type QuizStore struct {
	client         *redis.Client
	quizPrefix     string
	questionPrefix string
}

func NewQuizStore(client *redis.Client, quizPrefix, questionPrefix string) *QuizStore {
	if quizPrefix == "" {
		quizPrefix = "quiz"
	}
	if questionPrefix == "" {
		questionPrefix = "question"
	}
	return &QuizStore{client: client, quizPrefix: quizPrefix, questionPrefix: questionPrefix}
}

func (s *QuizStore) quizKey(username, quizID string) string {
	return s.quizPrefix + ":" + username + ":" + quizID
}

func (s *QuizStore) questionKey(quizID string, order int) string {
	return s.questionPrefix + ":" + quizID + ":" + strconv.Itoa(order)
}

func (s *QuizStore) indexKey(quizID string) string {
	return s.questionPrefix + ":" + quizID + ":index"
}

func (s *QuizStore) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	fields := map[string]interface{}{
		"id":               quiz.ID,
		"username":         quiz.Username,
		"topic":            quiz.Topic,
		"recommended_cert": quiz.RecommendedCert,
		"max_score":        quiz.MaxScore,
		"user_score":       quiz.UserScore,
		"created_at":       quiz.CreatedAt.Format(time.RFC3339),
	}
	if err := s.client.HSet(ctx, s.quizKey(quiz.Username, quiz.ID), fields).Err(); err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, username, quizID string) (domain.Quiz, error) {
	fields, err := s.client.HGetAll(ctx, s.quizKey(username, quizID)).Result()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	if len(fields) == 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := domain.Quiz{
		ID:              quizID,
		Username:        username,
		Topic:           fields["topic"],
		RecommendedCert: fields["recommended_cert"],
	}
	quiz.MaxScore, _ = strconv.Atoi(fields["max_score"])
	quiz.UserScore, _ = strconv.Atoi(fields["user_score"])
	if created, err := time.Parse(time.RFC3339, fields["created_at"]); err == nil {
		quiz.CreatedAt = created
	}
	return quiz, nil
}

func (s *QuizStore) IncrementScore(ctx context.Context, username, quizID string, delta int) (int, error) {
	// Callers read the quiz before incrementing, so the key is known to exist.
	total, err := s.client.HIncrBy(ctx, s.quizKey(username, quizID), "user_score", int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment score: %w", err)
	}
	return int(total), nil
}

func (s *QuizStore) PutQuestions(ctx context.Context, questions []domain.Question) error {
	pipe := s.client.Pipeline()
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		pipe.HSet(ctx, s.questionKey(q.QuizID, q.Order), map[string]interface{}{
			"question":       q.Text,
			"options":        string(options),
			"correct_answer": q.CorrectAnswer,
		})
		pipe.SAdd(ctx, s.indexKey(q.QuizID), q.Order)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put questions: %w", err)
	}
	return nil
}

func (s *QuizStore) GetQuestion(ctx context.Context, quizID string, order int) (domain.Question, error) {
	fields, err := s.client.HGetAll(ctx, s.questionKey(quizID, order)).Result()
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	if len(fields) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return questionFromHash(quizID, order, fields)
}

func (s *QuizStore) GradeQuestion(ctx context.Context, quizID string, order int, grade domain.Grade) error {
	key := s.questionKey(quizID, order)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("grade question: %w", err)
	}
	if exists == 0 {
		return domain.ErrQuestionNotFound
	}

	// HSETNX on user_answer doubles as the once-only guard.
	set, err := s.client.HSetNX(ctx, key, "user_answer", grade.UserAnswer).Result()
	if err != nil {
		return fmt.Errorf("grade question: %w", err)
	}
	if !set {
		return domain.ErrQuestionAlreadyGraded
	}

	err = s.client.HSet(ctx, key, map[string]interface{}{
		"answered_correctly": strconv.FormatBool(grade.Correct),
		"user_score":         grade.Score,
	}).Err()
	if err != nil {
		return fmt.Errorf("grade question: %w", err)
	}
	return nil
}

func (s *QuizStore) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	members, err := s.client.SMembers(ctx, s.indexKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make(map[int]*redis.MapStringStringCmd, len(members))
	for _, member := range members {
		order, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		cmds[order] = pipe.HGetAll(ctx, s.questionKey(quizID, order))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(cmds))
	for order, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		question, err := questionFromHash(quizID, order, fields)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func questionFromHash(quizID string, order int, fields map[string]string) (domain.Question, error) {
	question := domain.Question{
		QuizID: quizID,
		Order:  order,
		Text:   fields["question"],
	}
	if err := json.Unmarshal([]byte(fields["options"]), &question.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	question.CorrectAnswer, _ = strconv.Atoi(fields["correct_answer"])
	if answer, ok := fields["user_answer"]; ok {
		question.Answered = true
		question.UserAnswer, _ = strconv.Atoi(answer)
		question.Correct = fields["answered_correctly"] == "true"
		question.UserScore, _ = strconv.Atoi(fields["user_score"])
	}
	return question, nil
}
