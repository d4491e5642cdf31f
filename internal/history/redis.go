package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to url and checks the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid history.redisUrl", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to connect to Redis", err)
	}
	return client, nil
}

// RedisArtifactStore keeps history items in a Redis list holding ids,
// newest first, with each item stored under its own key
type RedisArtifactStore struct {
	rdb      *redis.Client
	prefix   string
	maxItems int
}

// NewRedisArtifactStore creates a store under keys starting with prefix
func NewRedisArtifactStore(rdb *redis.Client, prefix string, maxItems int) *RedisArtifactStore {
	if maxItems <= 0 {
		maxItems = 20
	}
	return &RedisArtifactStore{rdb: rdb, prefix: prefix, maxItems: maxItems}
}

func (s *RedisArtifactStore) indexKey() string { return s.prefix + ":history" }

func (s *RedisArtifactStore) itemKey(id string) string { return s.prefix + ":history:" + id }

// maxTxAttempts bounds retries of an optimistic transaction that lost a race
const maxTxAttempts = 10

func (s *RedisArtifactStore) Add(ctx context.Context, item types.HistoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	index := s.indexKey()
	add := func(tx *redis.Tx) error {
		// Evicted ids are read before the trim so their items can be removed too
		evicted, err := tx.LRange(ctx, index, int64(s.maxItems-1), -1).Result()
		if err != nil && err != redis.Nil {
			return storageError("failed to read history index", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.itemKey(item.ID), data, 0)
			pipe.LPush(ctx, index, item.ID)
			pipe.LTrim(ctx, index, 0, int64(s.maxItems-1))
			for _, id := range evicted {
				pipe.Del(ctx, s.itemKey(id))
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.rdb.Watch(ctx, add, index)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeIO) {
			return err
		}
		return storageError("failed to save history item", err)
	}
	return nil
}

func (s *RedisArtifactStore) List(ctx context.Context) ([]types.HistoryItem, error) {
	ids, err := s.rdb.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, storageError("failed to read history index", err)
	}
	if len(ids) == 0 {
		return []types.HistoryItem{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.itemKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageError("failed to read history items", err)
	}

	items := make([]types.HistoryItem, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var item types.HistoryItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *RedisArtifactStore) Get(ctx context.Context, id string) (types.HistoryItem, error) {
	data, err := s.rdb.Get(ctx, s.itemKey(id)).Bytes()
	if err == redis.Nil {
		return types.HistoryItem{}, notFound(id)
	}
	if err != nil {
		return types.HistoryItem{}, storageError("failed to read history item", err)
	}
	var item types.HistoryItem
	if err := json.Unmarshal(data, &item); err != nil {
		return types.HistoryItem{}, fmt.Errorf("failed to unmarshal history item: %w", err)
	}
	return item, nil
}

func (s *RedisArtifactStore) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.LRem(ctx, s.indexKey(), 0, id)
		pipe.Del(ctx, s.itemKey(id))
		return nil
	})
	if err != nil {
		return storageError("failed to delete history item", err)
	}
	if removed.Val() == 0 {
		return notFound(id)
	}
	return nil
}

// RedisSessionStore keeps each chat session as one JSON value with a TTL
// that is refreshed on every append
type RedisSessionStore struct {
	rdb         *redis.Client
	prefix      string
	maxMessages int
	ttl         time.Duration
}

// NewRedisSessionStore creates a session store under keys starting with prefix
func NewRedisSessionStore(rdb *redis.Client, prefix string, maxMessages int, ttl time.Duration) *RedisSessionStore {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{rdb: rdb, prefix: prefix, maxMessages: maxMessages, ttl: ttl}
}

func (s *RedisSessionStore) key(sessionID string) string { return s.prefix + ":session:" + sessionID }

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) ([]types.ChatMessage, error) {
	data, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return []types.ChatMessage{}, nil
	}
	if err != nil {
		return nil, storageError("failed to load session", err)
	}

	var msgs []types.ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return msgs, nil
}

func (s *RedisSessionStore) Append(ctx context.Context, sessionID string, msgs ...types.ChatMessage) error {
	key := s.key(sessionID)

	// A concurrent append to the same session fails the transaction instead of
	// overwriting it
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		var existing []types.ChatMessage
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return storageError("failed to load session", err)
		default:
			if err := json.Unmarshal(data, &existing); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
		}

		all := append(existing, msgs...)
		if len(all) > s.maxMessages {
			all = all[len(all)-s.maxMessages:]
		}
		out, err := json.Marshal(all)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err != nil {
			return storageError("failed to save session", err)
		}
		return nil
	}, key)
}

func storageError(msg string, err error) error {
	return errors.NewIOError(errors.ErrCodeStorageFailed, msg, err)
}
