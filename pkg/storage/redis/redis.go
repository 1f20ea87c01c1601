// Package redis provides a Redis-based implementation of the storage interface,
// letting several service replicas share one agent registry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/awareness-network/semindex/pkg/storage"
)

// Config holds configuration for RedisStorage.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultKeyPrefix namespaces every key written by RedisStorage.
const DefaultKeyPrefix = "semindex:"

// RedisStorage implements the AgentStore interface using Redis.
//
// Key layout:
//
//	{prefix}agents         hash of id -> JSON-encoded AgentState
//	{prefix}agents:order   list of ids in creation order
type RedisStorage struct {
	client   redis.UniversalClient
	dataKey  string
	orderKey string
	owned    bool
}

// createScript inserts an agent only when the id is new.
var createScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("RPUSH", KEYS[2], ARGV[1])
return 1
`)

// updateScript replaces an agent only when the id exists.
var updateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// NewRedisStorage connects to Redis using config and verifies the connection.
func NewRedisStorage(ctx context.Context, config *Config) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	s := NewWithClient(client, config.KeyPrefix)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. The caller keeps ownership of the
// client and Close does not close it.
func NewWithClient(client redis.UniversalClient, keyPrefix string) *RedisStorage {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStorage{
		client:   client,
		dataKey:  keyPrefix + "agents",
		orderKey: keyPrefix + "agents:order",
	}
}

func serialize(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &storage.SerializationError{Operation: "marshal", Cause: err}
	}
	return data, nil
}

func deserialize(data string, v interface{}) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return &storage.SerializationError{Operation: "unmarshal", Cause: err}
	}
	return nil
}

// CreateAgent stores a new agent and appends it to the creation order.
func (r *RedisStorage) CreateAgent(ctx context.Context, agent *storage.AgentState) error {
	data, err := serialize(agent)
	if err != nil {
		return err
	}

	created, err := createScript.Run(ctx, r.client, []string{r.dataKey, r.orderKey}, agent.ID, data).Int()
	if err != nil {
		return &storage.StorageUnavailableError{Cause: err}
	}
	if created == 0 {
		return &storage.DuplicateKeyError{EntityType: storage.EntityAgent, ID: agent.ID}
	}
	return nil
}

// UpdateAgent replaces an existing agent.
func (r *RedisStorage) UpdateAgent(ctx context.Context, agent *storage.AgentState) error {
	data, err := serialize(agent)
	if err != nil {
		return err
	}

	updated, err := updateScript.Run(ctx, r.client, []string{r.dataKey}, agent.ID, data).Int()
	if err != nil {
		return &storage.StorageUnavailableError{Cause: err}
	}
	if updated == 0 {
		return &storage.NotFoundError{EntityType: storage.EntityAgent, ID: agent.ID}
	}
	return nil
}

// maxTxRetries bounds how often RecordActivity retries after another client
// modified the agent hash between its read and its write.
const maxTxRetries = 32

// RecordActivity applies delta with optimistic locking: the agent hash is
// WATCHed, read, and rewritten in a MULTI block that Redis discards if any
// other client wrote the hash in between.
func (r *RedisStorage) RecordActivity(ctx context.Context, id string, delta storage.ActivityDelta) (*storage.AgentState, error) {
	var agent *storage.AgentState
	apply := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, r.dataKey, id).Result()
		if errors.Is(err, redis.Nil) {
			return &storage.NotFoundError{EntityType: storage.EntityAgent, ID: id}
		}
		if err != nil {
			return err
		}
		agent = new(storage.AgentState)
		if err := deserialize(raw, agent); err != nil {
			return err
		}
		delta.Apply(agent)
		data, err := serialize(agent)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.dataKey, id, data)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := r.client.Watch(ctx, apply, r.dataKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var (
			nf  *storage.NotFoundError
			ser *storage.SerializationError
		)
		switch {
		case err == nil:
			return agent, nil
		case errors.As(err, &nf), errors.As(err, &ser):
			return nil, err
		default:
			return nil, &storage.StorageUnavailableError{Cause: err}
		}
	}
	return nil, &storage.StorageUnavailableError{
		Cause: fmt.Errorf("agent %s: gave up after %d conflicting writes", id, maxTxRetries),
	}
}

// GetAgent retrieves an agent by ID.
func (r *RedisStorage) GetAgent(ctx context.Context, id string) (*storage.AgentState, error) {
	raw, err := r.client.HGet(ctx, r.dataKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &storage.NotFoundError{EntityType: storage.EntityAgent, ID: id}
		}
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	var agent storage.AgentState
	if err := deserialize(raw, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// ListAgents returns every agent in creation order.
func (r *RedisStorage) ListAgents(ctx context.Context) ([]*storage.AgentState, error) {
	ids, err := r.client.LRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	agents := make([]*storage.AgentState, 0, len(ids))
	if len(ids) == 0 {
		return agents, nil
	}

	values, err := r.client.HMGet(ctx, r.dataKey, ids...).Result()
	if err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, &storage.SerializationError{
				Operation: "unmarshal",
				Cause:     fmt.Errorf("agent %s listed in order but missing from hash", ids[i]),
			}
		}
		var agent storage.AgentState
		if err := deserialize(raw, &agent); err != nil {
			return nil, err
		}
		agents = append(agents, &agent)
	}
	return agents, nil
}

// CountAgents returns the number of stored agents.
func (r *RedisStorage) CountAgents(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.dataKey).Result()
	if err != nil {
		return 0, &storage.StorageUnavailableError{Cause: err}
	}
	return int(n), nil
}

// Ping checks if the Redis connection is healthy.
func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &storage.StorageUnavailableError{Cause: err}
	}
	return nil
}

// Close closes the client if this storage created it.
func (r *RedisStorage) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
