package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultTTL       = 5 * time.Minute
	releaseTimeout   = 5 * time.Second
	defaultKeyPrefix = "lca:lease:"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX, shared across processes.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis Locker. A non-positive ttl selects five minutes.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl, prefix: defaultKeyPrefix}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.New().String()

	ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "lease: redis acquire %s", key)
	}
	if !ok {
		return nil, eris.Wrapf(ErrHeld, "key %s", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(rctx, r.client, []string{k}, token).Err(); err != nil {
				zap.L().Warn("lease: redis release failed", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}
