package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"certprep-service/internal/app"
	"certprep-service/internal/domain"
)

// AgentHandler serves the action-group envelope the conversational agent
// sends: one POST endpoint, dispatched on apiPath, answering with the
// uniform messageVersion/response envelope.
type AgentHandler struct {
	quiz         *app.QuizService
	profiles     *app.ProfileService
	defaultTopic string
	defaultCount int
}

func NewAgentHandler(quiz *app.QuizService, profiles *app.ProfileService, defaultTopic string, defaultCount int) *AgentHandler {
	if defaultTopic == "" {
		defaultTopic = "General"
	}
	if defaultCount <= 0 {
		defaultCount = 5
	}
	return &AgentHandler{quiz: quiz, profiles: profiles, defaultTopic: defaultTopic, defaultCount: defaultCount}
}

type parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type requestContent struct {
	Properties []parameter `json:"properties"`
}

type requestBody struct {
	Content map[string]requestContent `json:"content"`
}

type agentRequest struct {
	MessageVersion string       `json:"messageVersion"`
	ActionGroup    string       `json:"actionGroup"`
	APIPath        string       `json:"apiPath"`
	HTTPMethod     string       `json:"httpMethod"`
	Parameters     []parameter  `json:"parameters"`
	RequestBody    *requestBody `json:"requestBody,omitempty"`
}

// params flattens the request's name/value pairs, falling back to the JSON
// request body when the top-level parameter list yields nothing.
func (r *agentRequest) params() map[string]string {
	out := make(map[string]string)
	for _, p := range r.Parameters {
		if p.Name != "" {
			out[p.Name] = p.Value
		}
	}
	if len(out) == 0 && r.RequestBody != nil {
		for _, p := range r.RequestBody.Content["application/json"].Properties {
			if p.Name != "" {
				out[p.Name] = p.Value
			}
		}
	}
	return out
}

type envelopeResponse struct {
	ActionGroup    string                 `json:"actionGroup"`
	APIPath        string                 `json:"apiPath"`
	HTTPMethod     string                 `json:"httpMethod"`
	HTTPStatusCode int                    `json:"httpStatusCode"`
	ResponseBody   map[string]contentBody `json:"responseBody"`
}

type contentBody struct {
	Body string `json:"body"`
}

type envelope struct {
	MessageVersion string           `json:"messageVersion"`
	Response       envelopeResponse `json:"response"`
}

// ServeHTTP handles POST /agent.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, agentRequest{}, http.StatusBadRequest, map[string]string{"error": "invalid request envelope"})
		return
	}

	payload, err := h.dispatch(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("agent action %s failed: %v", req.APIPath, err)
		}
		writeEnvelope(w, req, status, map[string]string{"error": err.Error()})
		return
	}
	writeEnvelope(w, req, http.StatusOK, payload)
}

func (h *AgentHandler) dispatch(ctx context.Context, req *agentRequest) (interface{}, error) {
	params := req.params()

	switch req.APIPath {
	case "/create-quiz":
		return h.createQuiz(ctx, params)
	case "/next-question":
		return h.nextQuestion(ctx, params)
	case "/quiz-result":
		return h.quizResult(ctx, params)
	case "/get-user-details":
		return h.getUserDetails(ctx, params)
	case "/update-user-profile":
		return h.updateUserProfile(ctx, params)
	case "/update-recommended-cert":
		return h.updateRecommendedCert(ctx, params)
	case "/get-cert-info":
		return h.getCertInfo(ctx, params)
	default:
		return nil, domain.Validationf("unknown apiPath %q", req.APIPath)
	}
}

func (h *AgentHandler) createQuiz(ctx context.Context, params map[string]string) (interface{}, error) {
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	topic := params["topic"]
	if topic == "" {
		topic = h.defaultTopic
	}
	count := h.defaultCount
	if raw, ok := params["num_questions"]; ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, domain.Validationf("num_questions must be a positive number")
		}
		count = parsed
	}
	return h.quiz.CreateQuiz(ctx, username, topic, count)
}

func (h *AgentHandler) nextQuestion(ctx context.Context, params map[string]string) (interface{}, error) {
	quizID := params["quiz_id"]
	if quizID == "" {
		return nil, domain.Validationf("quiz_id is required")
	}
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	rawOrder := params["current_order"]
	if rawOrder == "" {
		return nil, domain.Validationf("current_order is required")
	}
	currentOrder, err := strconv.Atoi(rawOrder)
	if err != nil {
		return nil, domain.Validationf("current_order must be a valid number")
	}
	answer, ok := params["user_answer"]
	if !ok {
		return nil, domain.Validationf("user_answer is required")
	}
	return h.quiz.Advance(ctx, quizID, username, currentOrder, answer)
}

func (h *AgentHandler) quizResult(ctx context.Context, params map[string]string) (interface{}, error) {
	quizID := params["quiz_id"]
	if quizID == "" {
		return nil, domain.Validationf("quiz_id is required")
	}
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	return h.quiz.Finalize(ctx, quizID, username)
}

func (h *AgentHandler) getUserDetails(ctx context.Context, params map[string]string) (interface{}, error) {
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	return h.profiles.GetUserDetails(ctx, username)
}

func (h *AgentHandler) updateUserProfile(ctx context.Context, params map[string]string) (interface{}, error) {
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	fields := make(map[string]string, len(params))
	for name, value := range params {
		if name != "username" {
			fields[name] = value
		}
	}
	profile, err := h.profiles.UpdateUserProfile(ctx, username, fields)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"message":           "User profile updated successfully!",
		"updatedAttributes": profile,
	}, nil
}

func (h *AgentHandler) updateRecommendedCert(ctx context.Context, params map[string]string) (interface{}, error) {
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	cert := params["recommended_cert"]
	if cert == "" {
		return nil, domain.Validationf("recommended_cert is required")
	}
	profile, err := h.profiles.UpdateRecommendedCert(ctx, username, cert)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"message":          "Recommended certification updated successfully for user: " + profile.Username,
		"username":         profile.Username,
		"recommended_cert": profile.RecommendedCert,
	}, nil
}

func (h *AgentHandler) getCertInfo(ctx context.Context, params map[string]string) (interface{}, error) {
	username := params["username"]
	if username == "" {
		return nil, domain.Validationf("username is required")
	}
	return h.profiles.GetCertInfo(ctx, username)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrCertNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuestionAlreadyGraded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, req agentRequest, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal response body: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}

	actionGroup := req.ActionGroup
	if actionGroup == "" {
		actionGroup = "UnknownActionGroup"
	}
	method := req.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	w.Header().Set("Content-Type", "application/json")
	// The envelope always travels with HTTP 200; the action status code
	// lives inside the response object.
	_ = json.NewEncoder(w).Encode(envelope{
		MessageVersion: "1.0",
		Response: envelopeResponse{
			ActionGroup:    actionGroup,
			APIPath:        req.APIPath,
			HTTPMethod:     method,
			HTTPStatusCode: status,
			ResponseBody: map[string]contentBody{
				"application/json": {Body: string(body)},
			},
		},
	})
}
