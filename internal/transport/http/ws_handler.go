package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"certprep-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// AgentInvoker streams a conversational reply for one user message.
type AgentInvoker interface {
	InvokeAgent(ctx context.Context, sessionID, message string, onChunk func(string)) (string, error)
}

// MessageLog records the conversation as it streams.
type MessageLog interface {
	Append(ctx context.Context, username string, entry domain.MessageEntry) error
	Recent(ctx context.Context, username string, limit int) ([]domain.MessageEntry, error)
}

const historyLimit = 20

// WSHandler proxies the conversational agent over a websocket: the client
// sends messages, the handler streams reply chunks back and logs both sides.
type WSHandler struct {
	invoker  AgentInvoker
	messages MessageLog
	upgrader websocket.Upgrader
}

func NewWSHandler(invoker AgentInvoker, messages MessageLog) *WSHandler {
	return &WSHandler{
		invoker:  invoker,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type chunkPayload struct {
	Text string `json:"text"`
}

type responsePayload struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and streams agent replies.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = "session-" + uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if history, err := h.messages.Recent(r.Context(), username, historyLimit); err == nil {
		_ = conn.WriteJSON(outboundMessage[[]domain.MessageEntry]{Type: "history", Payload: history})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "message":
			var payload messagePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Message == "" {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid message payload"}})
				continue
			}
			h.handleMessage(r.Context(), conn, username, sessionID, payload.Message)
		default:
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unknown message type"}})
		}
	}
}

func (h *WSHandler) handleMessage(ctx context.Context, conn *websocket.Conn, username, sessionID, message string) {
	h.logEntry(ctx, username, domain.MessageEntry{
		Timestamp:  time.Now().UTC(),
		Type:       "USER_MESSAGE",
		Content:    message,
		ShowToUser: true,
	})

	// InvokeAgent is synchronous and onChunk fires on this goroutine, so
	// writes to the connection never race.
	response, err := h.invoker.InvokeAgent(ctx, sessionID, message, func(chunk string) {
		_ = conn.WriteJSON(outboundMessage[chunkPayload]{Type: "chunk", Payload: chunkPayload{Text: chunk}})
	})
	if err != nil {
		log.Printf("agent invocation failed for %s: %v", username, err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "agent invocation failed"}})
		return
	}

	h.logEntry(ctx, username, domain.MessageEntry{
		Timestamp:  time.Now().UTC(),
		Type:       "FINAL_RESPONSE",
		Content:    response,
		ShowToUser: true,
		Agent:      "Orchestration",
	})
	_ = conn.WriteJSON(outboundMessage[responsePayload]{Type: "response", Payload: responsePayload{
		Response:  response,
		SessionID: sessionID,
	}})
}

func (h *WSHandler) logEntry(ctx context.Context, username string, entry domain.MessageEntry) {
	if err := h.messages.Append(ctx, username, entry); err != nil {
		log.Printf("log message for %s: %v", username, err)
	}
}
