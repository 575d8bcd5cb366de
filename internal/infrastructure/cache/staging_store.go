package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStagingKeyPrefix namespaces staged batches in Redis
const DefaultStagingKeyPrefix = "flowsales:staging:"

// RedisStagingStore keeps staged batches as JSON values with a TTL.
// It is suitable for multi-instance deployments.
type RedisStagingStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStagingStore connects to Redis and verifies the connection
func NewRedisStagingStore(cfg RedisConfig) (*RedisStagingStore, error) {
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

	return NewRedisStagingStoreWithClient(client, ""), nil
}

// NewRedisStagingStoreWithClient creates a store on an existing client
func NewRedisStagingStoreWithClient(client *redis.Client, keyPrefix string) *RedisStagingStore {
	if keyPrefix == "" {
		keyPrefix = DefaultStagingKeyPrefix
	}
	return &RedisStagingStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStagingStore) key(batchID uuid.UUID) string {
	return s.keyPrefix + batchID.String()
}

// Put stores or replaces a staged batch
func (s *RedisStagingStore) Put(ctx context.Context, staged *bulk.StagedBatch, ttl time.Duration) error {
	data, err := json.Marshal(staged)
	if err != nil {
		return fmt.Errorf("failed to encode staged batch: %w", err)
	}
	if err := s.client.Set(ctx, s.key(staged.BatchID), data, ttl).Err(); err != nil {
		return shared.NewTransientError(fmt.Errorf("failed to store staged batch: %w", err))
	}
	return nil
}

// Get loads a staged batch
func (s *RedisStagingStore) Get(ctx context.Context, batchID uuid.UUID) (*bulk.StagedBatch, error) {
	data, err := s.client.Get(ctx, s.key(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound.WithDetail("batch_id", batchID.String())
	}
	if err != nil {
		return nil, shared.NewTransientError(fmt.Errorf("failed to load staged batch: %w", err))
	}
	return decodeStaged(data)
}

// Delete removes a staged batch. Deleting a missing batch is not an error.
func (s *RedisStagingStore) Delete(ctx context.Context, batchID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(batchID)).Err(); err != nil {
		return shared.NewTransientError(fmt.Errorf("failed to delete staged batch: %w", err))
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStagingStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for health checks)
func (s *RedisStagingStore) GetClient() *redis.Client {
	return s.client
}

var _ bulk.StagingStore = (*RedisStagingStore)(nil)

type stagedItem struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryStagingStore keeps staged batches in process memory. Values are
// stored encoded so callers never share state with the store.
type InMemoryStagingStore struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]stagedItem
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStagingStore creates a store with a background cleanup loop
func NewInMemoryStagingStore() *InMemoryStagingStore {
	s := &InMemoryStagingStore{
		items:    make(map[uuid.UUID]stagedItem),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Put stores or replaces a staged batch. A non-positive ttl never expires.
func (s *InMemoryStagingStore) Put(_ context.Context, staged *bulk.StagedBatch, ttl time.Duration) error {
	data, err := json.Marshal(staged)
	if err != nil {
		return fmt.Errorf("failed to encode staged batch: %w", err)
	}
	item := stagedItem{data: data}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[staged.BatchID] = item
	return nil
}

// Get loads a staged batch
func (s *InMemoryStagingStore) Get(_ context.Context, batchID uuid.UUID) (*bulk.StagedBatch, error) {
	s.mu.RLock()
	item, ok := s.items[batchID]
	s.mu.RUnlock()

	if !ok || item.expired(s.now()) {
		return nil, shared.ErrNotFound.WithDetail("batch_id", batchID.String())
	}
	return decodeStaged(item.data)
}

// Delete removes a staged batch
func (s *InMemoryStagingStore) Delete(_ context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, batchID)
	return nil
}

// Size returns the number of stored batches, expired ones included
func (s *InMemoryStagingStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryStagingStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryStagingStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryStagingStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, item := range s.items {
		if item.expired(now) {
			delete(s.items, id)
		}
	}
}

func (i stagedItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

var _ bulk.StagingStore = (*InMemoryStagingStore)(nil)

func decodeStaged(data []byte) (*bulk.StagedBatch, error) {
	var staged bulk.StagedBatch
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("failed to decode staged batch: %w", err)
	}
	return &staged, nil
}
