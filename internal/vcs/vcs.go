// Package vcs defines the version-control collaborator the linker queries,
// and its git and caching implementations.
package vcs

import "context"

// Client answers read-only queries against a repository. Implementations
// must be safe for concurrent use; the history they read is never mutated.
type Client interface {
	// LatestRevision returns the tip of the current checkout, possibly
	// quoted.
	LatestRevision(ctx context.Context) (string, error)

	// Log returns human-readable log text for revision, or for the whole
	// history when revision is empty.
	Log(ctx context.Context, revision string) (string, error)

	// ChangedFiles returns the paths that differ between commit and its
	// first parent.
	ChangedFiles(ctx context.Context, commit string) ([]string, error)

	// DiffHunks returns the hunk header lines of a zero-context diff of
	// file between commit's first parent and commit.
	DiffHunks(ctx context.Context, commit, file string) ([]string, error)

	// Blame returns one line per source line in [start, start+count) of
	// file at revision, each starting with the id of the commit that last
	// touched it followed by a space.
	Blame(ctx context.Context, revision, file string, start, count int) ([]string, error)
}
