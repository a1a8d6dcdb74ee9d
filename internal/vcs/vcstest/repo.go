// Package vcstest provides in-memory vcs.Client implementations for tests.
package vcstest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"szz/internal/diff"
	"szz/internal/errors"
	"szz/internal/vcs"
)

type commit struct {
	hash    string
	parent  *commit
	message string
	files   map[string][]string
	origins map[string][]string
}

// Repo is a linear in-memory history. Each commit stores full file
// snapshots; blame is derived by carrying line origins through the diff
// engine, so answers match what git reports for the same history.
type Repo struct {
	mu      sync.Mutex
	engine  *diff.Engine
	commits map[string]*commit
	head    *commit
	calls   map[string]int
}

var _ vcs.Client = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{
		engine:  diff.NewEngine(),
		commits: make(map[string]*commit),
		calls:   make(map[string]int),
	}
}

// Commit records a new commit on top of the current head. changes maps paths
// to their full new content; a nil value deletes the file. Files not named
// keep their content.
func (r *Repo) Commit(hash, message string, changes map[string]*string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &commit{
		hash:    hash,
		parent:  r.head,
		message: message,
		files:   make(map[string][]string),
		origins: make(map[string][]string),
	}
	if r.head != nil {
		for path, lines := range r.head.files {
			c.files[path] = lines
			c.origins[path] = r.head.origins[path]
		}
	}

	for path, content := range changes {
		if content == nil {
			delete(c.files, path)
			delete(c.origins, path)
			continue
		}
		newLines := diff.Lines(*content)
		oldLines := c.files[path]
		oldOrigins := c.origins[path]

		origins := make([]string, len(newLines))
		for _, op := range r.engine.Align(oldLines, newLines) {
			switch {
			case op.NewNum == 0:
			case op.OldNum == 0:
				origins[op.NewNum-1] = hash
			default:
				origins[op.NewNum-1] = oldOrigins[op.OldNum-1]
			}
		}
		c.files[path] = newLines
		c.origins[path] = origins
	}

	r.commits[hash] = c
	r.head = c
}

// Content is a helper for building Commit change maps.
func Content(s string) *string {
	return &s
}

// Calls returns how many times the named query ran.
func (r *Repo) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// resolve understands full ids, unambiguous prefixes and trailing "^".
func (r *Repo) resolve(ref string) (*commit, error) {
	base := strings.TrimRight(ref, "^")
	depth := len(ref) - len(base)

	var c *commit
	if base == "HEAD" {
		c = r.head
	} else {
		for hash, candidate := range r.commits {
			if strings.HasPrefix(hash, base) && base != "" {
				if c != nil {
					return nil, errors.VcsQueryFailed(nil, "short object id %s is ambiguous", base)
				}
				c = candidate
			}
		}
	}
	if c == nil {
		return nil, errors.VcsQueryFailed(nil, "unknown revision %q", ref)
	}
	for i := 0; i < depth; i++ {
		if c.parent == nil {
			return nil, errors.VcsQueryFailed(nil, "unknown revision %q: %s has no parent", ref, c.hash)
		}
		c = c.parent
	}
	return c, nil
}

func (r *Repo) LatestRevision(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["latest"]++
	if r.head == nil {
		return "", errors.VcsQueryFailed(nil, "repository has no commits")
	}
	return `"` + r.head.hash + `"`, nil
}

func (r *Repo) Log(ctx context.Context, rev string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["log"]++

	var c *commit
	if rev == "" {
		c = r.head
	} else {
		var err error
		if c, err = r.resolve(rev); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	for ; c != nil; c = c.parent {
		fmt.Fprintf(&b, "commit %s\n\n    %s\n\n", c.hash, c.message)
		if rev != "" {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Repo) ChangedFiles(ctx context.Context, ref string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["files"]++

	c, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}
	if c.parent == nil {
		return nil, errors.VcsQueryFailed(nil, "bad revision '%s^'", ref)
	}

	var files []string
	for path, lines := range c.files {
		if !equal(lines, c.parent.files[path]) || !has(c.parent.files, path) {
			files = append(files, path)
		}
	}
	for path := range c.parent.files {
		if !has(c.files, path) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *Repo) DiffHunks(ctx context.Context, ref, file string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["hunks"]++

	c, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}
	if c.parent == nil {
		return nil, errors.VcsQueryFailed(nil, "bad revision '%s^'", ref)
	}

	var headers []string
	for _, h := range r.engine.Diff(c.parent.files[file], c.files[file]) {
		headers = append(headers, h.Header())
	}
	return headers, nil
}

func (r *Repo) Blame(ctx context.Context, rev, file string, start, count int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["blame"]++

	c, err := r.resolve(rev)
	if err != nil {
		return nil, err
	}
	lines, ok := c.files[file]
	if !ok {
		return nil, errors.VcsQueryFailed(nil, "no such path '%s' in %s", file, rev)
	}
	if start < 1 || count < 1 || start+count-1 > len(lines) {
		return nil, errors.VcsQueryFailed(nil, "file %s has only %d lines", file, len(lines))
	}

	out := make([]string, 0, count)
	for i := start - 1; i < start-1+count; i++ {
		out = append(out, c.origins[file][i]+" "+lines[i])
	}
	return out, nil
}

func has(m map[string][]string, path string) bool {
	_, ok := m[path]
	return ok
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
