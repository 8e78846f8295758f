package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotObtained is returned when a Redis lock could not be taken before the wait budget ran out
var ErrNotObtained = errors.New("lock not obtained")

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisLockerOptions tunes lock lifetime and waiting
type RedisLockerOptions struct {
	KeyPrefix string
	// TTL bounds how long a crashed holder can block the key
	TTL time.Duration
	// RetryInterval is the pause between attempts while waiting
	RetryInterval time.Duration
	// MaxWait caps how long Acquire waits when ctx has no deadline
	MaxWait time.Duration
}

// RedisLocker implements Locker with bsm/redislock so several instances
// serialize on the same keys
type RedisLocker struct {
	client *redislock.Client
	opts   RedisLockerOptions
	logger *zap.Logger
}

// NewRedisLocker creates a Redis-backed locker on an existing client
func NewRedisLocker(client redis.UniversalClient, opts RedisLockerOptions, logger *zap.Logger) *RedisLocker {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "erp:lock:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 50 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: redislock.New(client),
		opts:   opts,
		logger: logger,
	}
}

// Acquire retries until the lock is obtained, ctx is done or MaxWait elapses
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.opts.MaxWait)
		defer cancel()
	}

	lk, err := l.client.Obtain(waitCtx, l.opts.KeyPrefix+key, l.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.opts.RetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// release outlives a cancelled request context
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

var _ appshared.Locker = (*RedisLocker)(nil)
