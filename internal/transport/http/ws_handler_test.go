package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"certprep-service/internal/domain"
	"certprep-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

type fakeInvoker struct {
	chunks    []string
	err       error
	sessionID string
}

func (f *fakeInvoker) InvokeAgent(_ context.Context, sessionID, message string, onChunk func(string)) (string, error) {
	f.sessionID = sessionID
	if f.err != nil {
		return "", f.err
	}
	var response string
	for _, chunk := range f.chunks {
		response += chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return response, nil
}

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, handler *WSHandler, query string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(server.Close)

	url := "ws" + server.URL[len("http"):] + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func TestServeWSRequiresUsername(t *testing.T) {
	handler := NewWSHandler(&fakeInvoker{}, memory.NewMessageLog())
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServeWSStreamsReply(t *testing.T) {
	invoker := &fakeInvoker{chunks: []string{"Hello", ", world"}}
	messages := memory.NewMessageLog()
	handler := NewWSHandler(invoker, messages)

	conn := dialWS(t, handler, "username=alice&sessionId=session-test")

	// First frame is always history; a new user gets an empty list.
	history := readFrame(t, conn)
	if history.Type != "history" {
		t.Fatalf("first frame type = %q, want history", history.Type)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "message",
		"payload": map[string]string{"message": "hi"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []string{"Hello", ", world"} {
		frame := readFrame(t, conn)
		if frame.Type != "chunk" {
			t.Fatalf("frame type = %q, want chunk", frame.Type)
		}
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			t.Fatalf("decode chunk: %v", err)
		}
		if payload.Text != want {
			t.Fatalf("chunk = %q, want %q", payload.Text, want)
		}
	}

	final := readFrame(t, conn)
	if final.Type != "response" {
		t.Fatalf("frame type = %q, want response", final.Type)
	}
	var payload struct {
		Response  string `json:"response"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(final.Payload, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Response != "Hello, world" || payload.SessionID != "session-test" {
		t.Fatalf("unexpected response payload: %+v", payload)
	}
	if invoker.sessionID != "session-test" {
		t.Fatalf("session not threaded to invoker: %q", invoker.sessionID)
	}

	// Both sides of the exchange are logged.
	entries, err := messages.Recent(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Type != "USER_MESSAGE" || entries[0].Content != "hi" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Type != "FINAL_RESPONSE" || entries[1].Agent != "Orchestration" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestServeWSSendsHistory(t *testing.T) {
	messages := memory.NewMessageLog()
	messages.Append(context.Background(), "alice", domain.MessageEntry{
		Timestamp: time.Now().UTC(), Type: "USER_MESSAGE", Content: "earlier", ShowToUser: true,
	})
	handler := NewWSHandler(&fakeInvoker{}, messages)

	conn := dialWS(t, handler, "username=alice")

	frame := readFrame(t, conn)
	if frame.Type != "history" {
		t.Fatalf("first frame type = %q", frame.Type)
	}
	var history []domain.MessageEntry
	if err := json.Unmarshal(frame.Payload, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Content != "earlier" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestServeWSErrorFrames(t *testing.T) {
	handler := NewWSHandler(&fakeInvoker{err: context.DeadlineExceeded}, memory.NewMessageLog())

	conn := dialWS(t, handler, "username=alice")
	readFrame(t, conn) // history

	// Unknown frame types are rejected without closing the connection.
	conn.WriteJSON(map[string]interface{}{"type": "subscribe"})
	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("frame type = %q, want error", frame.Type)
	}

	// Empty message payloads are rejected.
	conn.WriteJSON(map[string]interface{}{"type": "message", "payload": map[string]string{}})
	frame = readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("frame type = %q, want error", frame.Type)
	}

	// Invoker failures surface as an error frame.
	conn.WriteJSON(map[string]interface{}{"type": "message", "payload": map[string]string{"message": "hi"}})
	frame = readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("frame type = %q, want error", frame.Type)
	}
}
