package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"certprep-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// MessageLog records agent conversation entries per user as a Redis list.
type MessageLog struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewMessageLog(client *redis.Client, prefix string, ttl time.Duration) *MessageLog {
	if prefix == "" {
		prefix = "messages"
	}
	return &MessageLog{client: client, prefix: prefix, ttl: ttl}
}

func (l *MessageLog) Append(ctx context.Context, username string, entry domain.MessageEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := l.prefix + ":" + username
	if err := l.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if l.ttl > 0 {
		_ = l.client.Expire(ctx, key, l.ttl).Err()
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (l *MessageLog) Recent(ctx context.Context, username string, limit int) ([]domain.MessageEntry, error) {
	key := l.prefix + ":" + username
	raws, err := l.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	entries := make([]domain.MessageEntry, 0, len(raws))
	for _, raw := range raws {
		var entry domain.MessageEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
