package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker holds locks as SET NX keys so several processes can share
// them. The TTL frees a lock whose holder died.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, poll: 25 * time.Millisecond}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := "listsync:lock:" + key

	b := make([]byte, 16)
	rand.Read(b)
	owner := hex.EncodeToString(b)

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, owner, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, oops.New(err, "failed to acquire lock %s", key)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// the caller's ctx may already be done by the time it unlocks
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, owner).Err(); err != nil {
			logging.Warn().Err(err).Str("lock", key).Msg("failed to release lock")
		}
	}, nil
}
