// Package bootstrap assembles a linker from configuration: git client,
// query cache and its persistent store.
package bootstrap

import (
	"context"
	"fmt"

	"szz/internal/config"
	"szz/internal/linker"
	"szz/internal/store"
	"szz/internal/vcs"

	"go.uber.org/zap"
)

type Env struct {
	Linker *linker.Linker
	Client vcs.Client
	// Cache is nil when caching is disabled.
	Cache *vcs.CachingClient

	store *store.QueryStore
}

// Open builds an Env over the git repository containing cfg.Repository.Path.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Env, error) {
	root, err := vcs.FindRoot(cfg.Repository.Path)
	if err != nil {
		return nil, err
	}
	git, err := vcs.NewGitClient(ctx, root, cfg.Repository.Git, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing git client: %w", err)
	}
	return NewWithClient(git, cfg, logger)
}

// NewWithClient builds an Env over an existing client, layering the cache
// configured in cfg on top of it.
func NewWithClient(client vcs.Client, cfg *config.Config, logger *zap.Logger) (*Env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := linker.ParseFailurePolicy(cfg.Linker.OnFailure)
	if err != nil {
		return nil, err
	}

	env := &Env{Client: client}
	if cfg.Cache.Enabled {
		var backing vcs.Store
		if cfg.Cache.Path != "" {
			env.store, err = store.Open(cfg.Cache.Path, store.DefaultCompressionOptions())
			if err != nil {
				return nil, fmt.Errorf("opening query cache: %w", err)
			}
			backing = env.store
		}
		env.Cache, err = vcs.NewCachingClient(client, cfg.Cache.Size, backing, logger)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Client = env.Cache
	}

	env.Linker = linker.New(env.Client, logger, linker.Options{
		Workers:   cfg.Linker.Workers,
		OnFailure: policy,
	})
	return env, nil
}

func (e *Env) Close() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("closing query cache: %w", err)
	}
	return nil
}
