package cache

import (
	"fmt"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StagingStoreFactory creates staging stores based on configuration
type StagingStoreFactory struct {
	redisConfig           config.RedisConfig
	backend               string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StagingStoreFactoryOption is a functional option for configuring the factory
type StagingStoreFactoryOption func(*StagingStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StagingStoreFactoryOption {
	return func(f *StagingStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StagingStoreFactoryOption {
	return func(f *StagingStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithBackend selects "redis" or "memory". Default is "redis".
func WithBackend(backend string) StagingStoreFactoryOption {
	return func(f *StagingStoreFactory) {
		f.backend = backend
	}
}

// NewStagingStoreFactory creates a new factory
func NewStagingStoreFactory(cfg config.RedisConfig, opts ...StagingStoreFactoryOption) *StagingStoreFactory {
	f := &StagingStoreFactory{
		redisConfig:           cfg,
		backend:               config.StagingBackendRedis,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-backed staging store
func (f *StagingStoreFactory) CreateRedisStore() (*RedisStagingStore, error) {
	store, err := NewRedisStagingStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis staging store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory staging store.
// Staged batches are lost on restart and are not shared between instances.
func (f *StagingStoreFactory) CreateInMemoryStore() *InMemoryStagingStore {
	return NewInMemoryStagingStore()
}

// CreateStore creates the configured store. With the redis backend it falls
// back to memory when Redis is unreachable and fallback is allowed.
func (f *StagingStoreFactory) CreateStore() (bulk.StagingStore, error) {
	if f.backend == config.StagingBackendMemory {
		f.logger.Info("using in-memory staging store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis staging store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for staging but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory staging store. "+
		"Staged uploads will not survive a restart.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
