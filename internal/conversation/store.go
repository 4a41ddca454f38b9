package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/advisor/config"
)

// SessionState is what persists for one session between turns.
type SessionState struct {
	History []Message `json:"history"`
	Summary *Summary  `json:"summary,omitempty"`
}

// Store carries session history and the rolling summary across turns.
type Store interface {
	Load(ctx context.Context, sessionID string) (SessionState, error)
	Save(ctx context.Context, sessionID string, state SessionState) error
}

// MemoryStore is the in-process default, used for tests and single-node runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]SessionState)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID], nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, state SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = state
	return nil
}

// RedisStore keeps session state in Redis with a TTL, letting several
// instances share sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Host + ":" + cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: ttl,
	}
}

func sessionKey(id string) string { return "advisor:session:" + id }

func (s *RedisStore) Load(ctx context.Context, sessionID string) (SessionState, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return SessionState{}, nil
	}
	if err != nil {
		return SessionState{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return SessionState{}, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, state SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
