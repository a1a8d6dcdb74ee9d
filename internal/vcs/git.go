package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"szz/internal/blame"
	"szz/internal/errors"
	"szz/internal/revision"

	"go.uber.org/zap"
)

var gitVersionRegex = regexp.MustCompile(`git version (\d+)\.(\d+)\.`)

// GitClient runs the git binary inside a working tree.
type GitClient struct {
	Dir    string
	Git    string
	Logger *zap.Logger
}

var _ Client = (*GitClient)(nil)

// NewGitClient returns a client for the repository at dir. An empty gitPath
// looks git up on PATH.
func NewGitClient(ctx context.Context, dir, gitPath string, logger *zap.Logger) (*GitClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path, major, minor, err := FindGit(ctx, gitPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("using git", zap.String("path", path), zap.Int("major", major), zap.Int("minor", minor))
	return &GitClient{Dir: dir, Git: path, Logger: logger}, nil
}

// FindGit resolves the git executable and its major and minor version.
func FindGit(ctx context.Context, gitPath string) (string, int, int, error) {
	if gitPath == "" {
		gitPath = "git"
	}
	path, err := exec.LookPath(gitPath)
	if err != nil {
		return "", 0, 0, errors.VcsQueryFailed(err, "finding git executable %q", gitPath)
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", 0, 0, errors.VcsQueryFailed(err, "running %s --version", path)
	}
	major, minor, err := ParseVersion(string(out))
	if err != nil {
		return "", 0, 0, err
	}
	return path, major, minor, nil
}

// ParseVersion parses the output of `git --version`.
func ParseVersion(out string) (int, int, error) {
	m := gitVersionRegex.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, errors.ParseError("failed to parse the git version from output: %q", out)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, errors.ParseError("failed to parse the git version from output: %q", out)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, errors.ParseError("failed to parse the git version from output: %q", out)
	}
	return major, minor, nil
}

// run executes git with args and returns stdout. A non-zero exit becomes a
// VcsQueryFailed carrying git's stderr.
func (g *GitClient) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Git, args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.Logger.Debug("executing git", zap.Strings("args", args), zap.String("dir", g.Dir))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		g.Logger.Debug("git failed", zap.Strings("args", args), zap.String("stderr", msg), zap.Error(err))
		return "", errors.VcsQueryFailed(err, "git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

func (g *GitClient) LatestRevision(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "log", "-1", `--pretty=format:"%H"`)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

func (g *GitClient) Log(ctx context.Context, rev string) (string, error) {
	args := []string{"--no-pager", "log", "--stat"}
	if rev != "" {
		args = append(args, "-1", rev, "--")
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

func (g *GitClient) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	// -z prints paths verbatim, NUL-terminated, instead of C-quoting the
	// ones with unusual bytes.
	out, err := g.run(ctx, "--no-pager", "diff", "--name-only", "-z", "--no-renames", revision.Parent(commit), commit, "--")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

func (g *GitClient) DiffHunks(ctx context.Context, commit, file string) ([]string, error) {
	out, err := g.run(ctx, "--literal-pathspecs", "--no-pager", "diff", "--no-color", "--no-ext-diff", "--no-renames", "-U0",
		revision.Parent(commit), commit, "--", file)
	if err != nil {
		return nil, err
	}
	var headers []string
	for _, line := range splitLines(out) {
		if strings.HasPrefix(line, "@@") {
			headers = append(headers, line)
		}
	}
	return headers, nil
}

func (g *GitClient) Blame(ctx context.Context, rev, file string, start, count int) ([]string, error) {
	out, err := g.run(ctx, "--no-pager", "blame", "--line-porcelain",
		fmt.Sprintf("-L%d,+%d", start, count), rev, "--", file)
	if err != nil {
		return nil, err
	}
	return blame.FromPorcelain(out)
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
