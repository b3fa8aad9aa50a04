package stash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

const (
	sessionPrefix = "stash:session:"
	userPrefix    = "stash:user:"
)

// RedisStash stores payment intents per session with a TTL. A second key
// points from the paying user to the session so the provider notification,
// which only knows the user, can find the intent.
type RedisStash struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStash(rdb *redis.Client, ttl time.Duration) *RedisStash {
	return &RedisStash{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string { return sessionPrefix + sessionID }
func userKey(userID uint) string         { return fmt.Sprintf("%s%d", userPrefix, userID) }

func (s *RedisStash) Put(ctx context.Context, sessionID string, intent domain.Intent) error {
	if sessionID == "" {
		return errors.New("stash: empty session id")
	}

	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("stash: encode intent: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sessionID), payload, s.ttl)
		pipe.Set(ctx, userKey(intent.UserID), sessionID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("stash: put: %w", err)
	}
	return nil
}

// takeScript removes the intent and, when it still points at this session,
// the user pointer in one atomic step. Returns nil when nothing is staged.
var takeScript = redis.NewScript(`
local payload = redis.call('GET', KEYS[1])
if not payload then
  return false
end
redis.call('DEL', KEYS[1])
local intent = cjson.decode(payload)
local userKey = ARGV[1] .. string.format('%d', intent.user_id)
if redis.call('GET', userKey) == ARGV[2] then
  redis.call('DEL', userKey)
end
return payload
`)

// Take reads and deletes the intent atomically, so concurrent callers
// cannot both consume it.
func (s *RedisStash) Take(ctx context.Context, sessionID string) (*domain.Intent, error) {
	payload, err := takeScript.Run(ctx, s.rdb, []string{sessionKey(sessionID)}, userPrefix, sessionID).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stash: take: %w", err)
	}
	return decodeIntent(payload)
}

func (s *RedisStash) Peek(ctx context.Context, sessionID string) (*domain.Intent, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stash: peek: %w", err)
	}
	return decodeIntent(payload)
}

func decodeIntent(payload string) (*domain.Intent, error) {
	var intent domain.Intent
	if err := json.Unmarshal([]byte(payload), &intent); err != nil {
		return nil, fmt.Errorf("stash: decode intent: %w", err)
	}
	return &intent, nil
}

func (s *RedisStash) SessionForUser(ctx context.Context, userID uint) (string, error) {
	sid, err := s.rdb.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stash: lookup user session: %w", err)
	}
	return sid, nil
}

func (s *RedisStash) Discard(ctx context.Context, sessionID string) error {
	if _, err := s.Take(ctx, sessionID); err != nil {
		return err
	}
	return nil
}

var _ domain.Stash = (*RedisStash)(nil)
