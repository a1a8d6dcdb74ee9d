package vcs

import (
	"context"
	"fmt"
	"strconv"

	"szz/internal/revision"
	"szz/shared/utils"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store is a second cache tier behind the in-memory LRU, typically on disk.
type Store interface {
	GetLines(key string) ([]string, bool, error)
	PutLines(key string, lines []string) error
}

// CachingClient memoizes queries whose answers cannot change: those
// addressed by object ids. Queries naming symbolic refs, the latest
// revision and whole-history logs always go to the wrapped client.
type CachingClient struct {
	inner  Client
	cache  *lru.Cache[string, []string]
	store  Store
	logger *zap.Logger
}

var _ Client = (*CachingClient)(nil)

// NewCachingClient wraps inner with an LRU of size entries. store may be nil.
func NewCachingClient(inner Client, size int, store Store, logger *zap.Logger) (*CachingClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &CachingClient{inner: inner, cache: cache, store: store, logger: logger}, nil
}

// Len returns the number of entries held in memory.
func (c *CachingClient) Len() int {
	return c.cache.Len()
}

func (c *CachingClient) LatestRevision(ctx context.Context) (string, error) {
	return c.inner.LatestRevision(ctx)
}

func (c *CachingClient) Log(ctx context.Context, rev string) (string, error) {
	if !revision.IsImmutable(rev) {
		return c.inner.Log(ctx, rev)
	}
	lines, err := c.lookup(utils.CacheKey("log", rev), func() ([]string, error) {
		out, err := c.inner.Log(ctx, rev)
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	})
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

func (c *CachingClient) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	if !revision.IsImmutable(commit) {
		return c.inner.ChangedFiles(ctx, commit)
	}
	return c.lookup(utils.CacheKey("files", commit), func() ([]string, error) {
		return c.inner.ChangedFiles(ctx, commit)
	})
}

func (c *CachingClient) DiffHunks(ctx context.Context, commit, file string) ([]string, error) {
	if !revision.IsImmutable(commit) {
		return c.inner.DiffHunks(ctx, commit, file)
	}
	return c.lookup(utils.CacheKey("hunks", commit, file), func() ([]string, error) {
		return c.inner.DiffHunks(ctx, commit, file)
	})
}

func (c *CachingClient) Blame(ctx context.Context, rev, file string, start, count int) ([]string, error) {
	if !revision.IsImmutable(rev) {
		return c.inner.Blame(ctx, rev, file, start, count)
	}
	key := utils.CacheKey("blame", rev, file, strconv.Itoa(start), strconv.Itoa(count))
	return c.lookup(key, func() ([]string, error) {
		return c.inner.Blame(ctx, rev, file, start, count)
	})
}

// lookup consults the LRU, then the store, then fetch. Failed fetches are
// not cached. Callers receive a copy so they cannot alter cached entries.
func (c *CachingClient) lookup(key string, fetch func() ([]string, error)) ([]string, error) {
	if lines, ok := c.cache.Get(key); ok {
		return clone(lines), nil
	}

	if c.store != nil {
		lines, ok, err := c.store.GetLines(key)
		if err != nil {
			c.logger.Warn("reading query cache", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.cache.Add(key, lines)
			return clone(lines), nil
		}
	}

	lines, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(lines))
	if c.store != nil {
		if err := c.store.PutLines(key, lines); err != nil {
			c.logger.Warn("writing query cache", zap.String("key", key), zap.Error(err))
		}
	}
	return lines, nil
}

func clone(lines []string) []string {
	if lines == nil {
		return nil
	}
	return append([]string(nil), lines...)
}
