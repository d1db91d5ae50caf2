package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/infrastructure/redis"
)

const persistKeyPrefix = "inboxpilot:session:"

// PersistedState is the durable subset of a session. Tokens are deliberately
// excluded: they live only in memory and in the mirrored cookies.
type PersistedState struct {
	User            *User        `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	PendingPlan     *PendingPlan `json:"pending_plan,omitempty"`
}

// Persister saves and loads the durable session subset under a fixed
// namespace key. Load returns (nil, nil) when nothing is stored.
type Persister interface {
	Save(ctx context.Context, sessionID string, state PersistedState) error
	Load(ctx context.Context, sessionID string) (*PersistedState, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisPersister struct {
	redisService *redis.Service
}

type MemoryPersister struct {
	mu     sync.RWMutex
	states map[string]PersistedState
}

// NewPersister returns a Redis-backed persister when Redis is reachable,
// otherwise an in-memory fallback
func NewPersister(redisService *redis.Service) Persister {
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err == nil {
			return &RedisPersister{redisService: redisService}
		}
	}
	return NewMemoryPersister()
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		states: make(map[string]PersistedState),
	}
}

// Redis persister implementation
func (rp *RedisPersister) Save(ctx context.Context, sessionID string, state PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return rp.redisService.Set(ctx, persistKeyPrefix+sessionID, string(data), config.GetSessionTTL())
}

func (rp *RedisPersister) Load(ctx context.Context, sessionID string) (*PersistedState, error) {
	data, err := rp.redisService.Get(ctx, persistKeyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var state PersistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (rp *RedisPersister) Delete(ctx context.Context, sessionID string) error {
	return rp.redisService.Delete(ctx, persistKeyPrefix+sessionID)
}

// Memory persister implementation
func (mp *MemoryPersister) Save(ctx context.Context, sessionID string, state PersistedState) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.states[sessionID] = state
	return nil
}

func (mp *MemoryPersister) Load(ctx context.Context, sessionID string) (*PersistedState, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	state, exists := mp.states[sessionID]
	if !exists {
		return nil, nil
	}
	return &state, nil
}

func (mp *MemoryPersister) Delete(ctx context.Context, sessionID string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.states, sessionID)
	return nil
}
