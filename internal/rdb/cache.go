package rdb

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cjeanneret/emecwheel/internal/debug"
)

type cacheEntry struct {
	Records MemoryRecordSet
}

// CachedSource keeps a local badger replica of every table it has served.
// Lookups hit the replica first; misses go to the wrapped source and are
// stored. A nil wrapped source makes the replica read-only.
type CachedSource struct {
	src Source
	db  *badger.DB
}

// NewCachedSource opens (or creates) the replica in dir. An empty dir keeps
// the replica in memory.
func NewCachedSource(src Source, dir string) (*CachedSource, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: badger: %v", ErrSourceUnavailable, err)
	}
	return &CachedSource{src: src, db: db}, nil
}

func (c *CachedSource) Close() error {
	return c.db.Close()
}

func (c *CachedSource) Lookup(ctx context.Context, table, tag, node string) (RecordSet, error) {
	k := []byte(key(table, tag, node))

	var cached cacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&cached)
		})
	})
	switch {
	case err == nil:
		debug.Trace("rdb cache hit %s", k)
		return cached.Records, nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		return nil, fmt.Errorf("cache read %s: %w", k, err)
	}

	if c.src == nil {
		return MemoryRecordSet(nil), nil
	}
	rs, err := c.src.Lookup(ctx, table, tag, node)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(rs)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cacheEntry{Records: snap}); err != nil {
		return nil, fmt.Errorf("cache encode %s: %w", k, err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, buf.Bytes())
	}); err != nil {
		debug.Errorf("rdb cache write %s: %v", k, err)
	}
	return snap, nil
}
