package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"certprep-service/internal/app"
	"certprep-service/internal/domain"
	"certprep-service/internal/infra/memory"
)

type stubQuestionGenerator struct {
	drafts []domain.QuestionDraft
}

func (g stubQuestionGenerator) Generate(context.Context, string, string, int) ([]domain.QuestionDraft, error) {
	return g.drafts, nil
}

type stubReportGenerator struct{}

func (stubReportGenerator) Explain(context.Context, string, string, []domain.QuestionSummary) ([]domain.Explanation, error) {
	return []domain.Explanation{}, nil
}

func (stubReportGenerator) AnalyzeGaps(context.Context, string, string, []domain.QuestionSummary) (domain.GapReport, error) {
	return domain.GapReport{Gaps: []domain.Gap{}, Recommendations: []domain.Recommendation{}}, nil
}

func newTestHandler() *AgentHandler {
	store := memory.NewQuizStore()
	profiles := memory.NewProfileStore(map[string]domain.UserProfile{
		"alice": {Username: "alice", RecommendedCert: "Certified Developer - Associate"},
	})
	certs := memory.NewStaticCertInfoStore(map[string]domain.CertInfo{
		"Certified Developer - Associate": {CertificationName: "Certified Developer - Associate", ExamCode: "DVA-C02"},
	})
	gen := stubQuestionGenerator{drafts: []domain.QuestionDraft{
		{Text: "Q1?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
		{Text: "Q2?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
	}}
	quiz := app.NewQuizService(store, profiles, gen, stubReportGenerator{})
	return NewAgentHandler(quiz, app.NewProfileService(profiles, certs), "General", 5)
}

func post(t *testing.T, h *AgentHandler, payload interface{}) envelope {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/agent", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// The transport-level status is always 200; the action status travels
	// inside the envelope.
	if rec.Code != http.StatusOK {
		t.Fatalf("outer status = %d, want 200", rec.Code)
	}
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func innerBody(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	raw := env.Response.ResponseBody["application/json"].Body
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("decode inner body %q: %v", raw, err)
	}
}

func agentCall(apiPath string, params map[string]string) agentRequest {
	req := agentRequest{
		MessageVersion: "1.0",
		ActionGroup:    "QuizActionGroup",
		APIPath:        apiPath,
		HTTPMethod:     http.MethodPost,
	}
	for name, value := range params {
		req.Parameters = append(req.Parameters, parameter{Name: name, Value: value})
	}
	return req
}

func TestCreateQuizEnvelope(t *testing.T) {
	h := newTestHandler()

	env := post(t, h, agentCall("/create-quiz", map[string]string{
		"username":      "alice",
		"topic":         "Storage",
		"num_questions": "2",
	}))
	if env.MessageVersion != "1.0" {
		t.Fatalf("messageVersion = %q", env.MessageVersion)
	}
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d, body %q", env.Response.HTTPStatusCode, env.Response.ResponseBody["application/json"].Body)
	}
	if env.Response.ActionGroup != "QuizActionGroup" || env.Response.APIPath != "/create-quiz" {
		t.Fatalf("envelope echo mismatch: %+v", env.Response)
	}

	var created domain.QuizCreation
	innerBody(t, env, &created)
	if created.QuizID == "" || created.TotalQuestionCount != 2 {
		t.Fatalf("unexpected creation: %+v", created)
	}
	// Creation is the one response that includes the correct index.
	if created.CurrentQuestion.CorrectAnswer == nil || *created.CurrentQuestion.CorrectAnswer != 1 {
		t.Fatalf("correct answer missing from creation response: %+v", created.CurrentQuestion)
	}
}

func TestCreateQuizRequestBodyFallback(t *testing.T) {
	h := newTestHandler()

	req := agentRequest{
		MessageVersion: "1.0",
		APIPath:        "/create-quiz",
		RequestBody: &requestBody{
			Content: map[string]requestContent{
				"application/json": {Properties: []parameter{
					{Name: "username", Value: "alice"},
					{Name: "num_questions", Value: "2"},
				}},
			},
		},
	}
	env := post(t, h, req)
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	if env.Response.ActionGroup != "UnknownActionGroup" {
		t.Fatalf("expected default action group, got %q", env.Response.ActionGroup)
	}
}

func TestNextQuestionWithholdsAnswer(t *testing.T) {
	h := newTestHandler()

	var created domain.QuizCreation
	innerBody(t, post(t, h, agentCall("/create-quiz", map[string]string{
		"username": "alice", "num_questions": "2",
	})), &created)

	env := post(t, h, agentCall("/next-question", map[string]string{
		"username":      "alice",
		"quiz_id":       created.QuizID,
		"current_order": "1",
		"user_answer":   "B",
	}))
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	var result domain.AdvanceResult
	innerBody(t, env, &result)
	if !result.PreviousQuestionCorrect {
		t.Fatalf("expected correct grade: %+v", result)
	}
	if result.CurrentQuestion == nil || result.CurrentQuestion.CorrectAnswer != nil {
		t.Fatalf("advance response must withhold the correct answer: %+v", result.CurrentQuestion)
	}
}

func TestQuizResultEnvelope(t *testing.T) {
	h := newTestHandler()

	var created domain.QuizCreation
	innerBody(t, post(t, h, agentCall("/create-quiz", map[string]string{
		"username": "alice", "num_questions": "2",
	})), &created)

	for order, answer := range map[string]string{"1": "B", "2": "D"} {
		post(t, h, agentCall("/next-question", map[string]string{
			"username": "alice", "quiz_id": created.QuizID,
			"current_order": order, "user_answer": answer,
		}))
	}

	env := post(t, h, agentCall("/quiz-result", map[string]string{
		"username": "alice", "quiz_id": created.QuizID,
	}))
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	var report domain.QuizReport
	innerBody(t, env, &report)
	if report.FinalScore.Correct != 1 || report.FinalScore.Total != 2 {
		t.Fatalf("unexpected score: %+v", report.FinalScore)
	}
	if report.FinalScore.Percentage != 50 || report.PerformanceBand != domain.BandNeedsImprovement {
		t.Fatalf("unexpected grading: %+v", report)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	h := newTestHandler()

	var created domain.QuizCreation
	innerBody(t, post(t, h, agentCall("/create-quiz", map[string]string{
		"username": "alice", "num_questions": "2",
	})), &created)
	post(t, h, agentCall("/next-question", map[string]string{
		"username": "alice", "quiz_id": created.QuizID,
		"current_order": "1", "user_answer": "A",
	}))

	cases := []struct {
		name   string
		req    agentRequest
		status int
	}{
		{"missing username", agentCall("/create-quiz", nil), http.StatusBadRequest},
		{"bad answer", agentCall("/next-question", map[string]string{
			"username": "alice", "quiz_id": created.QuizID,
			"current_order": "2", "user_answer": "E",
		}), http.StatusBadRequest},
		{"unknown apiPath", agentCall("/delete-everything", map[string]string{"username": "alice"}), http.StatusBadRequest},
		{"unknown user", agentCall("/get-user-details", map[string]string{"username": "stranger"}), http.StatusNotFound},
		{"unknown quiz", agentCall("/quiz-result", map[string]string{
			"username": "alice", "quiz_id": "quiz-missing",
		}), http.StatusNotFound},
		{"regrade", agentCall("/next-question", map[string]string{
			"username": "alice", "quiz_id": created.QuizID,
			"current_order": "1", "user_answer": "A",
		}), http.StatusConflict},
	}
	for _, tc := range cases {
		env := post(t, h, tc.req)
		if env.Response.HTTPStatusCode != tc.status {
			t.Fatalf("%s: inner status = %d, want %d (body %q)",
				tc.name, env.Response.HTTPStatusCode, tc.status, env.Response.ResponseBody["application/json"].Body)
		}
	}
}

func TestUpdateUserProfileAction(t *testing.T) {
	h := newTestHandler()

	env := post(t, h, agentCall("/update-user-profile", map[string]string{
		"username":        "alice",
		"aspiringjobrole": "Architect",
		"password":        "ignored",
	}))
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	var payload struct {
		Message           string             `json:"message"`
		UpdatedAttributes domain.UserProfile `json:"updatedAttributes"`
	}
	innerBody(t, env, &payload)
	if payload.Message != "User profile updated successfully!" {
		t.Fatalf("unexpected message: %q", payload.Message)
	}
	if payload.UpdatedAttributes.AspiringJobRole != "Architect" {
		t.Fatalf("field not applied: %+v", payload.UpdatedAttributes)
	}

	// Only disallowed fields present is a caller error.
	env = post(t, h, agentCall("/update-user-profile", map[string]string{
		"username": "alice", "password": "x",
	}))
	if env.Response.HTTPStatusCode != http.StatusBadRequest {
		t.Fatalf("inner status = %d, want 400", env.Response.HTTPStatusCode)
	}
}

func TestUpdateRecommendedCertAction(t *testing.T) {
	h := newTestHandler()

	env := post(t, h, agentCall("/update-recommended-cert", map[string]string{
		"username":         "alice",
		"recommended_cert": "Certified Developer - Associate",
	}))
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	var payload map[string]string
	innerBody(t, env, &payload)
	if payload["recommended_cert"] != "Certified Developer - Associate" || payload["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestGetCertInfoAction(t *testing.T) {
	h := newTestHandler()

	env := post(t, h, agentCall("/get-cert-info", map[string]string{"username": "alice"}))
	if env.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("inner status = %d", env.Response.HTTPStatusCode)
	}
	var info domain.CertInfo
	innerBody(t, env, &info)
	if info.ExamCode != "DVA-C02" {
		t.Fatalf("unexpected cert info: %+v", info)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/agent", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Response.HTTPStatusCode != http.StatusBadRequest {
		t.Fatalf("inner status = %d, want 400", env.Response.HTTPStatusCode)
	}
}
