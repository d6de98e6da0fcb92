package memory

import (
	"context"
	"sync"

	"certprep-service/internal/domain"
)

// MessageLog keeps agent conversation entries in memory.
type MessageLog struct {
	mu      sync.RWMutex
	entries map[string][]domain.MessageEntry
}

func NewMessageLog() *MessageLog {
	return &MessageLog{entries: make(map[string][]domain.MessageEntry)}
}

func (l *MessageLog) Append(_ context.Context, username string, entry domain.MessageEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[username] = append(l.entries[username], entry)
	return nil
}

func (l *MessageLog) Recent(_ context.Context, username string, limit int) ([]domain.MessageEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.entries[username]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.MessageEntry, len(entries))
	copy(out, entries)
	return out, nil
}
