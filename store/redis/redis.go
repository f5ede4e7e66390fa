package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/scriptflow/store"
)

// RedisScriptStore implements store.ScriptStore using Redis
type RedisScriptStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.ScriptStore = (*RedisScriptStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "scriptflow:"
	TTL      time.Duration // Expiration for records, default 0 (no expiration)
}

// NewRedisScriptStore creates a new Redis script store
func NewRedisScriptStore(opts RedisOptions) *RedisScriptStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "scriptflow:"
	}

	return &RedisScriptStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisScriptStore) recordKey(id string) string {
	return fmt.Sprintf("%sscript:%s", s.prefix, id)
}

// indexKey is a sorted set of record ids scored by creation time.
func (s *RedisScriptStore) indexKey() string {
	return s.prefix + "scripts"
}

// Save stores a record
func (s *RedisScriptStore) Save(ctx context.Context, record *store.Record) error {
	data, err := store.Encode(record)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(record.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(record.CreatedAt.UnixMilli()),
		Member: record.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save record to redis: %w", err)
	}
	return nil
}

// Load retrieves a record by ID
func (s *RedisScriptStore) Load(ctx context.Context, id string) (*store.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load record from redis: %w", err)
	}
	return store.Decode(data)
}

// List returns records for topic, newest first. Index entries whose record
// has expired are pruned.
func (s *RedisScriptStore) List(ctx context.Context, topic string) ([]*store.Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(ids) == 0 {
		return []*store.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	records := []*store.Record{}
	var expired []any
	for i, result := range results {
		data, ok := result.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		r, err := store.Decode([]byte(data))
		if err != nil {
			continue
		}
		if topic != "" && r.Topic != topic {
			continue
		}
		records = append(records, r)
	}

	if len(expired) > 0 {
		s.client.ZRem(ctx, s.indexKey(), expired...)
	}

	store.SortNewest(records)
	return records, nil
}

// Delete removes a record
func (s *RedisScriptStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Close closes the client
func (s *RedisScriptStore) Close() error {
	return s.client.Close()
}
