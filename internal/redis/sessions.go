package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Sessions tracks issued access tokens by their JWT ID so that logout
// actually revokes a token before it expires.
type Sessions struct {
	Client *redis.Client
}

func NewSessions(client *redis.Client) *Sessions {
	return &Sessions{Client: client}
}

func sessionKey(jti string) string { return "session:" + jti }

func (s *Sessions) AddSession(ctx context.Context, jti, phone string, ttl time.Duration) error {
	return s.Client.Set(ctx, sessionKey(jti), phone, ttl).Err()
}

func (s *Sessions) RemoveSession(ctx context.Context, jti string) error {
	err := s.Client.Del(ctx, sessionKey(jti)).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

func (s *Sessions) SessionExists(ctx context.Context, jti string) (bool, error) {
	_, err := s.Client.Get(ctx, sessionKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
