// README: Redis-backed per-card lock for multi-instance deployments.
// SET NX with a TTL acquires; a compare-and-delete script releases so an
// expired holder cannot drop a lock someone else re-acquired.
package tap

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"citypass/internal/types"
)

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

type RedisLock struct {
	rdb *redis.Client
}

func NewRedisLock(rdb *redis.Client) *RedisLock {
	return &RedisLock{rdb: rdb}
}

func (r *RedisLock) Lock(ctx context.Context, cardID types.ID) (func(), error) {
	key := "tap:lock:" + string(cardID)
	token := uuid.NewString()
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, r.rdb, []string{key}, token)
	}, nil
}
