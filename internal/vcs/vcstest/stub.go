package vcstest

import (
	"context"

	"szz/internal/errors"
	"szz/internal/vcs"
)

// Stub is a vcs.Client whose answers come from per-method funcs. A nil func
// fails the query.
type Stub struct {
	LatestFn func(ctx context.Context) (string, error)
	LogFn    func(ctx context.Context, rev string) (string, error)
	FilesFn  func(ctx context.Context, commit string) ([]string, error)
	HunksFn  func(ctx context.Context, commit, file string) ([]string, error)
	BlameFn  func(ctx context.Context, rev, file string, start, count int) ([]string, error)
}

var _ vcs.Client = (*Stub)(nil)

func unset(method string) error {
	return errors.VcsQueryFailed(nil, "stub: %s not configured", method)
}

func (s *Stub) LatestRevision(ctx context.Context) (string, error) {
	if s.LatestFn == nil {
		return "", unset("LatestRevision")
	}
	return s.LatestFn(ctx)
}

func (s *Stub) Log(ctx context.Context, rev string) (string, error) {
	if s.LogFn == nil {
		return "", unset("Log")
	}
	return s.LogFn(ctx, rev)
}

func (s *Stub) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	if s.FilesFn == nil {
		return nil, unset("ChangedFiles")
	}
	return s.FilesFn(ctx, commit)
}

func (s *Stub) DiffHunks(ctx context.Context, commit, file string) ([]string, error) {
	if s.HunksFn == nil {
		return nil, unset("DiffHunks")
	}
	return s.HunksFn(ctx, commit, file)
}

func (s *Stub) Blame(ctx context.Context, rev, file string, start, count int) ([]string, error) {
	if s.BlameFn == nil {
		return nil, unset("Blame")
	}
	return s.BlameFn(ctx, rev, file, start, count)
}
