package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Identity is the authenticated user behind a session.
type Identity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

type record struct {
	Identity
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps server-side session records in Redis. Records expire after ttl.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create opens a new session for id and returns its session id.
func (s *Store) Create(ctx context.Context, id Identity) (string, error) {
	data, err := json.Marshal(record{Identity: id, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	sid := uuid.NewString()
	if err := s.redis.Set(ctx, keyPrefix+sid, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

func (s *Store) Get(ctx context.Context, sid string) (Identity, error) {
	if sid == "" {
		return Identity{}, ErrNotFound
	}

	data, err := s.redis.Get(ctx, keyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Identity{}, fmt.Errorf("decode session: %w", err)
	}
	return rec.Identity, nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.redis.Del(ctx, keyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
