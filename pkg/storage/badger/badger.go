// Package badger persists agents in an embedded Badger database.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/awareness-network/semindex/pkg/storage"
)

// Config mirrors the Badger options the registry exposes. Zero values keep
// Badger's defaults.
type Config struct {
	Path              string
	SyncWrites        bool
	ValueLogFileSize  int64
	NumVersionsToKeep int
}

func (c *Config) options() badger.Options {
	opts := badger.DefaultOptions(c.Path).WithSyncWrites(c.SyncWrites).WithLogger(nil)
	if c.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(c.ValueLogFileSize)
	}
	if c.NumVersionsToKeep > 0 {
		opts = opts.WithNumVersionsToKeep(c.NumVersionsToKeep)
	}
	return opts
}

// Keys:
//
//	agent:data:{id}         agent JSON
//	agent:order:{seq}:{id}  empty; scanned to list agents in creation order
//	agent:seq               sequence allocating {seq}
const (
	dataPrefix  = "agent:data:"
	orderPrefix = "agent:order:"
	seqKey      = "agent:seq"
	seqLease    = 100

	maxConflictRetries = 16
)

func dataKey(id string) []byte { return []byte(dataPrefix + id) }

// orderKey zero-pads seq so byte order is creation order.
func orderKey(seq uint64, id string) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", orderPrefix, seq, id)
}

func idFromOrderKey(key []byte) string {
	_, id, _ := strings.Cut(strings.TrimPrefix(string(key), orderPrefix), ":")
	return id
}

// BadgerStorage is a storage.AgentStore on Badger.
type BadgerStorage struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ storage.AgentStore = (*BadgerStorage)(nil)

// NewBadgerStorage opens or creates the database at config.Path.
func NewBadgerStorage(config *Config) (*BadgerStorage, error) {
	db, err := badger.Open(config.options())
	if err != nil {
		return nil, unavailable(err)
	}
	seq, err := db.GetSequence([]byte(seqKey), seqLease)
	if err != nil {
		_ = db.Close()
		return nil, unavailable(err)
	}
	return &BadgerStorage{db: db, seq: seq}, nil
}

func unavailable(err error) error {
	return &storage.StorageUnavailableError{Cause: err}
}

// classify passes typed storage errors through and reports anything else
// as the backend being unavailable.
func classify(err error) error {
	var (
		nf  *storage.NotFoundError
		dup *storage.DuplicateKeyError
		ser *storage.SerializationError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &nf), errors.As(err, &dup), errors.As(err, &ser):
		return err
	default:
		return unavailable(err)
	}
}

func encode(agent *storage.AgentState) ([]byte, error) {
	data, err := json.Marshal(agent)
	if err != nil {
		return nil, &storage.SerializationError{Operation: "marshal", Cause: err}
	}
	return data, nil
}

func exists(txn *badger.Txn, id string) (bool, error) {
	_, err := txn.Get(dataKey(id))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func load(txn *badger.Txn, id string) (*storage.AgentState, error) {
	item, err := txn.Get(dataKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &storage.NotFoundError{EntityType: storage.EntityAgent, ID: id}
	}
	if err != nil {
		return nil, err
	}
	agent := new(storage.AgentState)
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, agent); err != nil {
			return &storage.SerializationError{Operation: "unmarshal", Cause: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// scanOrder calls fn with each agent id in creation order.
func scanOrder(txn *badger.Txn, fn func(id string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(orderPrefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := fn(idFromOrderKey(it.Item().Key())); err != nil {
			return err
		}
	}
	return nil
}

func (b *BadgerStorage) CreateAgent(ctx context.Context, agent *storage.AgentState) error {
	data, err := encode(agent)
	if err != nil {
		return err
	}
	seq, err := b.seq.Next()
	if err != nil {
		return unavailable(err)
	}
	return classify(b.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, agent.ID)
		if err != nil {
			return err
		}
		if found {
			return &storage.DuplicateKeyError{EntityType: storage.EntityAgent, ID: agent.ID}
		}
		if err := txn.Set(dataKey(agent.ID), data); err != nil {
			return err
		}
		return txn.Set(orderKey(seq, agent.ID), nil)
	}))
}

func (b *BadgerStorage) UpdateAgent(ctx context.Context, agent *storage.AgentState) error {
	data, err := encode(agent)
	if err != nil {
		return err
	}
	return classify(b.db.Update(func(txn *badger.Txn) error {
		found, err := exists(txn, agent.ID)
		if err != nil {
			return err
		}
		if !found {
			return &storage.NotFoundError{EntityType: storage.EntityAgent, ID: agent.ID}
		}
		return txn.Set(dataKey(agent.ID), data)
	}))
}

// RecordActivity reads and rewrites the agent in one transaction. Badger
// aborts a transaction whose reads were overwritten by a concurrent commit
// with ErrConflict; the update is then retried on a fresh read.
func (b *BadgerStorage) RecordActivity(ctx context.Context, id string, delta storage.ActivityDelta) (*storage.AgentState, error) {
	for attempt := 0; ; attempt++ {
		var agent *storage.AgentState
		err := b.db.Update(func(txn *badger.Txn) (err error) {
			if agent, err = load(txn, id); err != nil {
				return err
			}
			delta.Apply(agent)
			data, err := encode(agent)
			if err != nil {
				return err
			}
			return txn.Set(dataKey(id), data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			if err := ctx.Err(); err != nil {
				return nil, unavailable(err)
			}
			continue
		}
		if err != nil {
			return nil, classify(err)
		}
		return agent, nil
	}
}

func (b *BadgerStorage) GetAgent(ctx context.Context, id string) (*storage.AgentState, error) {
	var agent *storage.AgentState
	err := b.db.View(func(txn *badger.Txn) (err error) {
		agent, err = load(txn, id)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return agent, nil
}

func (b *BadgerStorage) ListAgents(ctx context.Context) ([]*storage.AgentState, error) {
	agents := []*storage.AgentState{}
	err := b.db.View(func(txn *badger.Txn) error {
		return scanOrder(txn, func(id string) error {
			agent, err := load(txn, id)
			if err != nil {
				return err
			}
			agents = append(agents, agent)
			return nil
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	return agents, nil
}

func (b *BadgerStorage) CountAgents(ctx context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		return scanOrder(txn, func(string) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (b *BadgerStorage) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return unavailable(errors.New("badger database is closed"))
	}
	return nil
}

// Close returns the unused sequence lease, runs one value log GC pass and
// closes the database.
func (b *BadgerStorage) Close() error {
	if err := b.seq.Release(); err != nil {
		_ = b.db.Close()
		return unavailable(err)
	}
	// ErrNoRewrite only means there was nothing to collect.
	_ = b.db.RunValueLogGC(0.5)
	return b.db.Close()
}
