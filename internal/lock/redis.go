package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trainload/internal/telemetry/tracing"
	"github.com/2beens/trainload/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	keyPrefix          = "trainload::lock::"
	tokenLength        = 24
	defaultRetryPeriod = 50 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by someone else is left alone.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

var (
	ErrLockLost = errors.New("lock expired before release")
	// ErrLockBusy means the key stayed held for the whole wait.
	ErrLockBusy = errors.New("lock busy")
)

// RedisGuard is a Guard shared by every process talking to the same Redis.
// Lock polls a held key until it is free, ctx is done, or maxAttempts
// SETNX calls failed.
type RedisGuard struct {
	redisClient *redis.Client
	ttl         time.Duration
	retryPeriod time.Duration
	maxAttempts int
	newToken    func() (string, error)
}

var _ Guard = (*RedisGuard)(nil)

// NewRedisGuard waits up to ttl for a held key, long enough for a crashed
// holder's key to expire.
func NewRedisGuard(redisClient *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		redisClient: redisClient,
		ttl:         ttl,
		retryPeriod: defaultRetryPeriod,
		maxAttempts: int(ttl/defaultRetryPeriod) + 1,
		newToken: func() (string, error) {
			return pkg.GenerateRandomString(tokenLength)
		},
	}
}

func (g *RedisGuard) Lock(ctx context.Context, key string) (_ func(context.Context) error, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "lock.redis.lock")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	token, err := g.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}

	redisKey := keyPrefix + key
	attempts := 0
	for {
		attempts++
		acquired, err := g.redisClient.SetNX(ctx, redisKey, token, g.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if acquired {
			break
		}
		if attempts >= g.maxAttempts {
			return nil, fmt.Errorf("%s still held after %d attempts: %w", key, attempts, ErrLockBusy)
		}

		timer := time.NewTimer(g.retryPeriod)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: %w: %w", key, ErrLockBusy, ctx.Err())
		}
	}
	span.SetAttributes(attribute.Int("attempts", attempts))

	log.Tracef("lock %s acquired after %d attempt(s)", redisKey, attempts)
	return func(ctx context.Context) error {
		deleted, err := g.redisClient.Eval(ctx, releaseScript, []string{redisKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("release %s: %w", redisKey, err)
		}
		if deleted == 0 {
			return fmt.Errorf("release %s: %w", redisKey, ErrLockLost)
		}
		return nil
	}, nil
}
