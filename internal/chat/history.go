package chat

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"mindbridge/infrastructure"
)

// RecentLimit bounds the per-room recent-message cache. The cache is
// trimmed after every insert so it never exceeds this many entries.
const RecentLimit = 50

// History is the recent-message cache: a bounded, room-scoped list of
// serialized message payloads in reverse-chronological insertion order.
// It is best-effort; the durable store remains the source of truth.
type History interface {
	PushFront(ctx context.Context, roomID uint, payload []byte) error
	Trim(ctx context.Context, roomID uint, max int64) error
	Range(ctx context.Context, roomID uint, max int64) ([][]byte, error)
}

type RedisHistory struct {
	client *redis.Client
}

func NewRedisHistory(client *redis.Client) *RedisHistory {
	return &RedisHistory{client: client}
}

func historyKey(roomID uint) string {
	return fmt.Sprintf("chatroom:%d:messages", roomID)
}

func (h *RedisHistory) PushFront(ctx context.Context, roomID uint, payload []byte) error {
	if err := h.client.LPush(ctx, historyKey(roomID), payload).Err(); err != nil {
		return fmt.Errorf("%w: push front: %v", infrastructure.ErrCache, err)
	}
	return nil
}

func (h *RedisHistory) Trim(ctx context.Context, roomID uint, max int64) error {
	if err := h.client.LTrim(ctx, historyKey(roomID), 0, max-1).Err(); err != nil {
		return fmt.Errorf("%w: trim: %v", infrastructure.ErrCache, err)
	}
	return nil
}

// Range returns up to max cached payloads, most recent first.
func (h *RedisHistory) Range(ctx context.Context, roomID uint, max int64) ([][]byte, error) {
	values, err := h.client.LRange(ctx, historyKey(roomID), 0, max-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: range: %v", infrastructure.ErrCache, err)
	}
	payloads := make([][]byte, 0, len(values))
	for _, v := range values {
		payloads = append(payloads, []byte(v))
	}
	return payloads, nil
}
