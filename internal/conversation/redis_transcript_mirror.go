package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	chatTranscriptKeyPrefix = "chat_transcript:"
	defaultMirrorTTL        = 24 * time.Hour
	defaultMirrorMaxTurns   = 500
)

// RedisTranscriptMirror keeps a copy of each session's turns in a Redis list
// so history survives a restart or idle eviction of the in-memory session.
type RedisTranscriptMirror struct {
	redis    *redis.Client
	tracer   trace.Tracer
	ttl      time.Duration
	maxTurns int64
}

func NewRedisTranscriptMirror(redisClient *redis.Client, ttl time.Duration) *RedisTranscriptMirror {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultMirrorTTL
	}
	return &RedisTranscriptMirror{
		redis:    redisClient,
		tracer:   otel.Tracer("leadchat.internal.conversation.transcript_mirror"),
		ttl:      ttl,
		maxTurns: defaultMirrorMaxTurns,
	}
}

func (m *RedisTranscriptMirror) Append(ctx context.Context, sessionID string, turn Turn) error {
	if m == nil || m.redis == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("conversation: transcript mirror sessionID required")
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("conversation: marshal transcript turn: %w", err)
	}

	ctx, span := m.tracer.Start(ctx, "conversation.transcript_mirror.append")
	defer span.End()

	key := chatTranscriptKey(sessionID)
	pipe := m.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, m.ttl)
	if m.maxTurns > 0 {
		pipe.LTrim(ctx, key, -m.maxTurns, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append transcript turn: %w", err)
	}
	return nil
}

// List returns the mirrored turns oldest first. limit > 0 keeps the newest
// limit turns.
func (m *RedisTranscriptMirror) List(ctx context.Context, sessionID string, limit int64) ([]Turn, error) {
	if m == nil || m.redis == nil {
		return nil, nil
	}
	if sessionID == "" {
		return nil, errors.New("conversation: transcript mirror sessionID required")
	}

	ctx, span := m.tracer.Start(ctx, "conversation.transcript_mirror.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := m.redis.LRange(ctx, chatTranscriptKey(sessionID), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Turn{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list transcript turns: %w", err)
	}

	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, turn)
	}
	return out, nil
}

func chatTranscriptKey(sessionID string) string {
	return chatTranscriptKeyPrefix + sessionID
}
