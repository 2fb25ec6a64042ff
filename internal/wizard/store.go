package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quote-service/pkg/redis"
)

// ErrSessionNotFound is returned when a session id is unknown or its
// state has expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists the working selection of each wizard session. Only
// the in-progress selection is stored, never a finished quote.
type Store interface {
	Get(ctx context.Context, id string) (Selection, error)
	Save(ctx context.Context, id string, sel Selection) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. It is the default for
// single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Selection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Selection)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Selection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sel, ok := m.sessions[id]
	if !ok {
		return Selection{}, ErrSessionNotFound
	}
	sel.Features = append([]string(nil), sel.Features...)
	return sel, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, sel Selection) error {
	// Copy the slice so later caller mutations cannot reach the stored state.
	sel.Features = append([]string(nil), sel.Features...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = sel
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// RedisStore keeps sessions in Redis as JSON blobs with a TTL, so a
// session survives a restart and can be served by any instance.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (Selection, error) {
	data, err := r.redis.Get(ctx, sessionKey(id))
	if errors.Is(err, redis.ErrNoKey) {
		return Selection{}, ErrSessionNotFound
	}
	if err != nil {
		return Selection{}, fmt.Errorf("get session: %w", err)
	}

	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return Selection{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sel, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, sel Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.redis.Set(ctx, sessionKey(id), data, r.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}
