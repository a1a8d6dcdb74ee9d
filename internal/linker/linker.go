// Package linker attributes bug-fixing commits to the commits that most
// likely introduced the bug: it diffs each fix against its first parent and
// blames the parent over exactly the changed lines.
package linker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"szz/internal/blame"
	"szz/internal/diff"
	"szz/internal/errors"
	"szz/internal/revision"
	"szz/internal/vcs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FailurePolicy decides what a batch does when one fix commit fails.
type FailurePolicy string

const (
	// Abort stops the batch at the first failure.
	Abort FailurePolicy = "abort"
	// Collect keeps going and reports failures per fix commit.
	Collect FailurePolicy = "collect"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case Abort, Collect:
		return p, nil
	case "":
		return Abort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", s, Abort, Collect)
	}
}

type Options struct {
	// Workers bounds how many fix commits are processed at once.
	Workers   int
	OnFailure FailurePolicy
}

func DefaultOptions() Options {
	return Options{Workers: 1, OnFailure: Abort}
}

type Linker struct {
	vcs    vcs.Client
	logger *zap.Logger
	opts   Options
}

func New(client vcs.Client, logger *zap.Logger, opts Options) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OnFailure == "" {
		opts.OnFailure = Abort
	}
	return &Linker{vcs: client, logger: logger, opts: opts}
}

// checkRef rejects references that cannot name a revision or that git would
// read as an option.
func checkRef(ref string) error {
	switch {
	case ref == "":
		return errors.InvalidReference("empty commit reference")
	case strings.HasPrefix(ref, "-"):
		return errors.InvalidReference("commit reference %q looks like an option", ref)
	case strings.ContainsAny(ref, " \t\r\n"):
		return errors.InvalidReference("commit reference %q contains whitespace", ref)
	}
	return nil
}

// queryErr makes sure a collaborator failure surfaces as VcsQueryFailed
// without hiding a more specific kind it already carries.
func queryErr(err error, format string, args ...any) error {
	if errors.TypeOf(err) != "" {
		return fmt.Errorf(format+": %w", append(args, err)...)
	}
	return errors.VcsQueryFailed(err, format, args...)
}

// LatestRevision returns the normalized tip of the current checkout.
func (l *Linker) LatestRevision(ctx context.Context) (revision.CommitRef, error) {
	out, err := l.vcs.LatestRevision(ctx)
	if err != nil {
		return "", queryErr(err, "looking up latest revision")
	}
	// Single-line results can come back quoted.
	rev := strings.TrimSpace(strings.ReplaceAll(out, `"`, ""))
	return revision.Normalize(rev)
}

// Log returns the log text for rev, or the whole history when rev is empty.
func (l *Linker) Log(ctx context.Context, rev string) (string, error) {
	if rev != "" {
		if err := checkRef(rev); err != nil {
			return "", err
		}
	}
	out, err := l.vcs.Log(ctx, rev)
	if err != nil {
		return "", queryErr(err, "reading log")
	}
	return out, nil
}

// ChangedFiles returns the sorted set of paths commit changed relative to
// its first parent. A root commit has no parent and fails.
func (l *Linker) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	if err := checkRef(commit); err != nil {
		return nil, err
	}
	out, err := l.vcs.ChangedFiles(ctx, commit)
	if err != nil {
		return nil, queryErr(err, "listing files changed by %s", commit)
	}

	// Paths are kept byte for byte; only empty entries are dropped.
	files := make([]string, 0, len(out))
	for _, f := range out {
		if f != "" {
			files = append(files, f)
		}
	}
	slices.Sort(files)
	files = slices.Compact(files)

	l.logger.Debug("resolved changed files", zap.String("commit", commit), zap.Strings("files", files))
	return files, nil
}

// ChangedRanges returns the ranges of file, in the parent's numbering, that
// commit removed or rewrote. Pure insertions have nothing to blame and are
// left out.
func (l *Linker) ChangedRanges(ctx context.Context, commit, file string) ([]diff.LineRange, error) {
	if err := checkRef(commit); err != nil {
		return nil, err
	}
	headers, err := l.vcs.DiffHunks(ctx, commit, file)
	if err != nil {
		return nil, queryErr(err, "diffing %s in %s", file, commit)
	}
	ranges, err := diff.OldRanges(headers)
	if err != nil {
		return nil, fmt.Errorf("extracting ranges of %s in %s: %w", file, commit, err)
	}

	l.logger.Debug("extracted ranges",
		zap.String("commit", commit),
		zap.String("file", file),
		zap.Int("hunks", len(headers)),
		zap.Int("ranges", len(ranges)))
	return ranges, nil
}

// RangesByFile runs ChangedRanges for each file. Files without ranges, such
// as files the commit added, are omitted.
func (l *Linker) RangesByFile(ctx context.Context, commit string, files []string) (FileRangeMap, error) {
	result := make(FileRangeMap, len(files))
	for _, f := range files {
		ranges, err := l.ChangedRanges(ctx, commit, f)
		if err != nil {
			return nil, err
		}
		if len(ranges) > 0 {
			result[f] = ranges
		}
	}
	return result, nil
}

// OriginCommits blames commit's parent over every range and returns the
// commits that last touched those lines. Blaming the parent keeps the fix
// itself out of the answer.
func (l *Linker) OriginCommits(ctx context.Context, commit string, ranges FileRangeMap) (OriginSet, error) {
	if err := checkRef(commit); err != nil {
		return nil, err
	}
	parent := revision.Parent(commit)
	origins := NewOriginSet()

	files := make([]string, 0, len(ranges))
	for f := range ranges {
		files = append(files, f)
	}
	slices.Sort(files)

	for _, f := range files {
		for _, r := range ranges[f] {
			lines, err := l.vcs.Blame(ctx, parent, f, r.Start, r.Count)
			if err != nil {
				return nil, queryErr(err, "blaming %s:%s at %s", f, r, parent)
			}
			commits, err := blame.Commits(lines)
			if err != nil {
				return nil, fmt.Errorf("parsing blame of %s:%s at %s: %w", f, r, parent, err)
			}
			for _, c := range commits {
				origins.Add(revision.MustNormalize(c))
			}
		}
	}

	l.logger.Debug("attributed origins",
		zap.String("commit", commit),
		zap.Strings("origins", origins.Strings()))
	return origins, nil
}

// linkOne runs the whole pipeline for a single fix commit.
func (l *Linker) linkOne(ctx context.Context, fix string) (revision.CommitRef, OriginSet, error) {
	key, err := revision.Normalize(fix)
	if err != nil {
		return "", nil, err
	}
	if err := checkRef(fix); err != nil {
		return key, nil, err
	}
	files, err := l.ChangedFiles(ctx, fix)
	if err != nil {
		return key, nil, err
	}
	ranges, err := l.RangesByFile(ctx, fix, files)
	if err != nil {
		return key, nil, err
	}
	origins, err := l.OriginCommits(ctx, fix, ranges)
	if err != nil {
		return key, nil, err
	}

	l.logger.Info("linked fix commit",
		zap.String("commit", string(key)),
		zap.Int("files", len(files)),
		zap.Int("blamed_files", len(ranges)),
		zap.Int("origins", len(origins)))
	return key, origins, nil
}

// Link maps every fix commit to its origin commits. Under Abort the first
// failure is returned and no mapping is produced. Under Collect the
// successful entries are returned together with a *BatchError naming the
// commits that failed.
func (l *Linker) Link(ctx context.Context, fixes []string) (BugLinkMap, error) {
	report, err := l.run(ctx, fixes, l.opts.OnFailure == Collect)
	if err != nil {
		return nil, err
	}
	return report.Links, report.Err()
}

// LinkReport links every fix commit, collecting failures per commit
// regardless of the configured policy. The error is only non-nil when ctx
// is done.
func (l *Linker) LinkReport(ctx context.Context, fixes []string) (*Report, error) {
	return l.run(ctx, fixes, true)
}

func (l *Linker) run(ctx context.Context, fixes []string, collect bool) (*Report, error) {
	report := &Report{
		Links:    make(BugLinkMap, len(fixes)),
		Failures: make(map[revision.CommitRef]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for _, fix := range fixes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key, origins, err := l.linkOne(gctx, fix)
			if err != nil {
				err = &CommitError{Commit: fix, Err: err}
				l.logger.Warn("failed to link fix commit", zap.String("commit", fix), zap.Error(err))
				if !collect {
					return err
				}
				if key == "" {
					key = revision.CommitRef(fix)
				}
				mu.Lock()
				report.Failures[key] = err
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.Links[key] = origins
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}
