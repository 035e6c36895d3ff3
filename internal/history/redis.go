package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the transcript as a list of JSON messages; RPUSH
// preserves creation order.
type RedisStore struct {
	rdb       *redis.Client
	sessionID string
}

func OpenRedis(ctx context.Context, url, sessionID string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, connErr(Redis, fmt.Errorf("parse redis url: %w", err))
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, connErr(Redis, err)
	}
	return &RedisStore{rdb: rdb, sessionID: sessionID}, nil
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("chat_history:%s", s.sessionID)
}

func (s *RedisStore) SessionID() string { return s.sessionID }

func (s *RedisStore) Provider() Provider { return Redis }

func (s *RedisStore) Messages(ctx context.Context) ([]Message, error) {
	raw, err := s.rdb.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: list %s: %w", s.key(), err)
	}
	msgs := make([]Message, 0, len(raw))
	for i, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("history: unmarshal %s[%d]: %w", s.key(), i, err)
		}
		if !m.Role.valid() {
			return nil, fmt.Errorf("history: %s[%d] has unknown role %q", s.key(), i, m.Role)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisStore) AppendHuman(ctx context.Context, content string) error {
	return s.push(ctx, Message{Role: Human, Content: content})
}

func (s *RedisStore) AppendAssistant(ctx context.Context, content string) error {
	return s.push(ctx, Message{Role: Assistant, Content: content})
}

func (s *RedisStore) push(ctx context.Context, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("history: marshal message: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.key(), b).Err(); err != nil {
		return fmt.Errorf("history: append %s message: %w", m.Role, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
