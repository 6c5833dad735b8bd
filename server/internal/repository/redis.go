package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"video-coords/server/internal/ledger"
	"video-coords/server/internal/models"

	"github.com/redis/go-redis/v9"
)

// redisMountScript binds a ledger to a source.
// KEYS[1] = source key, KEYS[2] = events key
// ARGV[1] = source digest, ARGV[2] = ttl in milliseconds (0 keeps keys forever)
var redisMountScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
local ttl = tonumber(ARGV[2])

if current ~= ARGV[1] then
    redis.call("DEL", KEYS[2])
    redis.call("SET", KEYS[1], ARGV[1])
end
if ttl > 0 then
    redis.call("PEXPIRE", KEYS[1], ttl)
    redis.call("PEXPIRE", KEYS[2], ttl)
end

return redis.call("LRANGE", KEYS[2], 0, -1)
`)

// redisAppendScript pushes an event only if it lands at position ARGV[1].
// KEYS[1] = source key, KEYS[2] = events key
// ARGV[1] = seq, ARGV[2] = encoded event, ARGV[3] = ttl in milliseconds
// Returns {status, length}: 1 appended, 0 out of sequence, -1 not mounted.
var redisAppendScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
    return {-1, 0}
end

local length = redis.call("LLEN", KEYS[2])
if length ~= tonumber(ARGV[1]) then
    return {0, length}
end

length = redis.call("RPUSH", KEYS[2], ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
    redis.call("PEXPIRE", KEYS[1], ttl)
    redis.call("PEXPIRE", KEYS[2], ttl)
end
return {1, length}
`)

// RedisStore keeps ledgers in redis lists, one per viewer and component key.
// Keys expire after ttl without activity.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "clicks"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient opens a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) keys(id ledger.Identity) []string {
	base := fmt.Sprintf("%s:%s:%s", s.prefix, id.Viewer, id.Key)
	return []string{base + ":source", base + ":events"}
}

func (s *RedisStore) Mount(ctx context.Context, id ledger.Identity, sourceDigest string) ([]models.ClickEvent, error) {
	res, err := redisMountScript.Run(ctx, s.client, s.keys(id), sourceDigest, s.ttl.Milliseconds()).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("mount ledger %s: %w", id, err)
	}
	return decodeEvents(res)
}

func (s *RedisStore) Append(ctx context.Context, id ledger.Identity, seq int, e models.ClickEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode click: %w", err)
	}

	res, err := redisAppendScript.Run(ctx, s.client, s.keys(id), seq, payload, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return fmt.Errorf("append click: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("invalid response from append script")
	}

	switch res[0] {
	case 1:
		return nil
	case -1:
		return &ledger.SequenceError{ID: id, Got: seq, Unmounted: true}
	default:
		return &ledger.SequenceError{ID: id, Want: int(res[1]), Got: seq}
	}
}

func (s *RedisStore) Delete(ctx context.Context, id ledger.Identity) error {
	if err := s.client.Del(ctx, s.keys(id)...).Err(); err != nil {
		return fmt.Errorf("delete ledger %s: %w", id, err)
	}
	return nil
}

func decodeEvents(raw []string) ([]models.ClickEvent, error) {
	events := make([]models.ClickEvent, 0, len(raw))
	for i, item := range raw {
		var e models.ClickEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode click %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}
