package genai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// StreamCompleter is the streaming slice of the OpenAI client.
type StreamCompleter interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

const agentSystemPrompt = "You are a certification study assistant. Help the user plan their " +
	"certification path, answer questions about certifications, and guide them through quizzes."

// AgentClient streams conversational replies from the orchestration model.
type AgentClient struct {
	client StreamCompleter
	opts   Options
}

func NewAgentClient(client StreamCompleter, opts Options) *AgentClient {
	return &AgentClient{client: client, opts: opts}
}

// InvokeAgent sends the user message and forwards each reply chunk to
// onChunk as it arrives, returning the assembled response.
func (c *AgentClient) InvokeAgent(ctx context.Context, sessionID, message string, onChunk func(string)) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: agentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
		User:        sessionID,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("open agent stream: %w", err)
	}
	defer stream.Close()

	var response string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return response, nil
		}
		if err != nil {
			return response, fmt.Errorf("read agent stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		response += chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}
