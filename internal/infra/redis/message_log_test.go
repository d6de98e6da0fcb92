package redis

import (
	"context"
	"testing"
	"time"

	"certprep-service/internal/domain"
)

func entry(content string) domain.MessageEntry {
	return domain.MessageEntry{
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Type:       "USER_MESSAGE",
		Content:    content,
		ShowToUser: true,
	}
}

func TestMessageLogAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	log := NewMessageLog(newTestClient(t), "", 0)

	for _, content := range []string{"one", "two", "three"} {
		if err := log.Append(ctx, "alice", entry(content)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := log.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Content != "one" || entries[2].Content != "three" {
		t.Fatalf("entries out of order: %+v", entries)
	}

	// Limit keeps the newest entries.
	entries, err = log.Recent(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 || entries[0].Content != "two" {
		t.Fatalf("limit not applied from the tail: %+v", entries)
	}

	// Logs are per user.
	entries, err = log.Recent(ctx, "bob", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty log for bob, got %+v", entries)
	}
}
