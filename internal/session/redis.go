package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so multiple concierge instances can
// share conversation state. Each session is one JSON value with a TTL.
// Per-session write serialization is process-local: requests for the same
// session id are expected to land on the same instance (sticky routing).
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session.NewRedisStore: ping: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("session.RedisStore.Close: %w", err)
	}
	return nil
}

func key(sessionID string) string {
	return "concierge:session:" + sessionID
}

func (r *RedisStore) lockFor(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

func (r *RedisStore) GetOrCreate(ctx context.Context, sessionID, walletUserID string) (*Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := r.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	raw, err := r.client.Get(ctx, key(sessionID)).Bytes()
	switch {
	case err == nil:
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("session.RedisStore.GetOrCreate: decode: %w", err)
		}
		return &s, nil
	case errors.Is(err, redis.Nil):
		s := &Session{
			ID:           sessionID,
			WalletUserID: walletUserID,
			CreatedAt:    time.Now(),
		}
		if err := r.write(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("session.RedisStore.GetOrCreate: %w", err)
	}
}

func (r *RedisStore) AppendMessage(ctx context.Context, s *Session, role Role, content string) error {
	lock := r.lockFor(s.ID)
	lock.Lock()
	defer lock.Unlock()

	// Append against the stored session, not the caller's copy: another
	// request for the same id may have appended since this copy was
	// loaded, and writing the copy back would erase that message.
	var stored Session
	raw, err := r.client.Get(ctx, key(s.ID)).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("session.RedisStore.AppendMessage: decode: %w", err)
		}
	case errors.Is(err, redis.Nil):
		// Expired between GetOrCreate and now; reseed from the copy.
		stored = Session{
			ID:           s.ID,
			WalletUserID: s.WalletUserID,
			History:      s.Snapshot(),
			CreatedAt:    s.CreatedAt,
		}
	default:
		return fmt.Errorf("session.RedisStore.AppendMessage: %w", err)
	}

	stored.append(role, content)
	if err := r.write(ctx, &stored); err != nil {
		return err
	}

	s.mu.Lock()
	s.History = append(s.History[:0], stored.History...)
	s.mu.Unlock()
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) (bool, error) {
	lock := r.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	n, err := r.client.Del(ctx, key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session.RedisStore.Clear: %w", err)
	}

	r.mu.Lock()
	delete(r.locks, sessionID)
	r.mu.Unlock()

	return n > 0, nil
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session.RedisStore: encode: %w", err)
	}
	if err := r.client.Set(ctx, key(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session.RedisStore: set: %w", err)
	}
	return nil
}
