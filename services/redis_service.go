package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bert-gateway/models"
)

const (
	SessionKeyPrefix  = "session:"
	DefaultSessionTTL = time.Hour
)

// RedisSessionStore keeps sessions in Redis so every gateway replica sees them.
// Keys carry a TTL equal to the session max age, which makes Redis do the sweep.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisSessionStore(host string, port int, password string, db int, ttl time.Duration) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})
	return NewRedisSessionStoreWithClient(client, ttl)
}

func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

// Put stores a session with SET ... EX ttl
func (r *RedisSessionStore) Put(ctx context.Context, payload models.SessionPayload, fileName string) (*models.Session, error) {
	session, err := newSession(payload, fileName, r.now())
	if err != nil {
		return nil, err
	}
	jsonData, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	key := SessionKeyPrefix + session.ID
	err = capture(ctx, "Redis.Set", map[string]interface{}{
		"redis.key":       key,
		"redis.operation": "SET",
	}, func(ctx1 context.Context) error {
		return r.client.Set(ctx1, key, jsonData, r.ttl).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Get retrieves a session; an expired key reads as SessionNotFound
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	key := SessionKeyPrefix + id
	err := capture(ctx, "Redis.Get", map[string]interface{}{
		"redis.key":       key,
		"redis.operation": "GET",
	}, func(ctx1 context.Context) error {
		jsonData, err := r.client.Get(ctx1, key).Bytes()
		if err != nil {
			return err
		}
		return json.Unmarshal(jsonData, &session)
	})
	if errors.Is(err, redis.Nil) {
		return nil, errSessionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// Sweep is a no-op: Redis expires session keys on its own
func (r *RedisSessionStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

// Ping checks Redis connection
func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return capture(ctx, "Redis.Ping", map[string]interface{}{
		"redis.operation": "PING",
	}, func(ctx1 context.Context) error {
		return r.client.Ping(ctx1).Err()
	})
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}
