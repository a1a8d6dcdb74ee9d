// internal/store/store.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"szz/internal/vcs"

	"github.com/dgraph-io/badger/v4"
)

const queryPrefix = "q:"

// QueryStore persists VCS query output in badger. Only answers to queries
// on immutable object ids are written here, so entries never go stale.
type QueryStore struct {
	db *badger.DB
	cm *compressionManager
}

var _ vcs.Store = (*QueryStore)(nil)

// Open opens (or creates) a store at path. An empty path keeps everything in
// memory, which is what tests use.
func Open(path string, opts CompressionOptions) (*QueryStore, error) {
	var bopts badger.Options
	if path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		bopts = badger.DefaultOptions(path)
	}
	bopts = bopts.WithLogger(nil).WithNumVersionsToKeep(1)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return New(db, opts)
}

// New wraps an already open database.
func New(db *badger.DB, opts CompressionOptions) (*QueryStore, error) {
	cm, err := newCompressionManager(opts)
	if err != nil {
		return nil, err
	}
	return &QueryStore{db: db, cm: cm}, nil
}

func (s *QueryStore) makeKey(key string) []byte {
	return []byte(queryPrefix + key)
}

// GetLines returns the cached lines for key and whether they were present.
func (s *QueryStore) GetLines(key string) ([]string, bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.makeKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}

	data, err := s.cm.decompress(raw)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return lines, true, nil
}

// PutLines stores lines under key, replacing any previous value.
func (s *QueryStore) PutLines(key string, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	value := s.cm.compress(data)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.makeKey(key), value)
	})
}

// Count returns the number of cached queries.
func (s *QueryStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(queryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Purge drops every cached query.
func (s *QueryStore) Purge() error {
	return s.db.DropPrefix([]byte(queryPrefix))
}

func (s *QueryStore) Close() error {
	return s.db.Close()
}
