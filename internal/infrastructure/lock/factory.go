package lock

import (
	"fmt"
	"time"

	appshared "github.com/erp/manufacturing/internal/application/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend names a locker implementation
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config selects and tunes the locker
type Config struct {
	Backend Backend
	TTL     time.Duration
	MaxWait time.Duration
	Redis   RedisConfig
}

// Factory creates lockers based on configuration
type Factory struct {
	cfg                   Config
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-process locker when Redis is unavailable.
// Default is false: two instances sharing a database must not lock independently.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new locker factory
func NewFactory(cfg Config, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured locker and, for the Redis backend, the client
// it opened so the caller can share and close it. The client is nil otherwise.
func (f *Factory) Create() (appshared.Locker, *redis.Client, error) {
	if f.cfg.Backend != BackendRedis {
		f.logger.Info("using in-process locker")
		return NewKeyedLocker(), nil, nil
	}

	client, err := NewRedisClient(f.cfg.Redis)
	if err == nil {
		f.logger.Info("using Redis locker",
			zap.String("host", f.cfg.Redis.Host),
			zap.Int("port", f.cfg.Redis.Port))
		return NewRedisLocker(client, RedisLockerOptions{TTL: f.cfg.TTL, MaxWait: f.cfg.MaxWait}, f.logger), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for locking but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-process locker. "+
		"Costing records are not protected across instances.",
		zap.Error(err),
	)
	return NewKeyedLocker(), nil, nil
}
