package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"szz/client"
	"szz/internal/api"
	"szz/internal/errors"
	"szz/internal/linker"
	"szz/internal/logging"
	"szz/internal/revision"
	"szz/internal/vcs/vcstest"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	rootHash   = "1111111111111111111111111111111111111111"
	originHash = "deadbeef00000000000000000000000000000000"
	fixHash    = "abcdef1234567890abcdef1234567890abcdef12"
)

func newLinkServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := vcstest.NewRepo()
	repo.Commit(rootHash, "initial", map[string]*string{"README": vcstest.Content("hello\n")})
	repo.Commit(originHash, "add foo", map[string]*string{"foo.py": vcstest.Content("a\nb\nc\n")})
	repo.Commit(fixHash, "fix foo", map[string]*string{"foo.py": vcstest.Content("a\nB\nc\n")})

	logger := zaptest.NewLogger(t)
	mux := http.NewServeMux()
	api.NewLinkHandler(linker.New(repo, logger, linker.DefaultOptions()), logging.Wrap(logger)).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func init() {
	color.NoColor = true
}

func TestPrintLinks(t *testing.T) {
	links := linker.BugLinkMap{
		"abcdef12": linker.NewOriginSet("deadbeef", "cafebabe"),
		"01234567": linker.NewOriginSet(),
	}

	var buf bytes.Buffer
	assert.NoError(t, printLinks(&buf, links, map[string]string{"11111111": "no parent"}, false))
	assert.Equal(t, "01234567  (no origin commits)\n"+
		"abcdef12  <-  cafebabe deadbeef\n"+
		"11111111  no parent\n", buf.String())

	buf.Reset()
	assert.NoError(t, printLinks(&buf, links, nil, true))
	assert.JSONEq(t, `{"links": {"abcdef12": ["cafebabe", "deadbeef"], "01234567": []}}`, buf.String())
}

func TestPrintRanges(t *testing.T) {
	var buf bytes.Buffer
	printRanges(&buf, linker.FileRangeMap{
		"foo.py": {{Start: 10, Count: 3}, {Start: 20, Count: 1}},
	})
	assert.Equal(t, "foo.py\n  -10,+3  (lines 10-12)\n  -20,+1  (lines 20-20)\n", buf.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("boom")))
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", &linker.BatchError{})))
}

func TestLinkViaServer(t *testing.T) {
	ctx := context.Background()
	c := client.New(newLinkServer(t).URL)

	t.Run("AllLinked", func(t *testing.T) {
		var buf bytes.Buffer
		err := linkViaServer(ctx, &buf, c, []string{fixHash}, linker.Abort, false)
		require.NoError(t, err)
		assert.Equal(t, "abcdef12  <-  deadbeef\n", buf.String())
	})

	t.Run("AbortFailsWithoutOutput", func(t *testing.T) {
		var buf bytes.Buffer
		err := linkViaServer(ctx, &buf, c, []string{fixHash, rootHash}, linker.DefaultOptions().OnFailure, false)
		require.Error(t, err)

		var ce *linker.CommitError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "11111111", ce.Commit)
		assert.Equal(t, 1, exitCode(err))
		assert.Empty(t, buf.String())
	})

	t.Run("CollectPrintsSuccesses", func(t *testing.T) {
		var buf bytes.Buffer
		err := linkViaServer(ctx, &buf, c, []string{fixHash, rootHash}, linker.Collect, false)
		require.Error(t, err)

		var be *linker.BatchError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, []revision.CommitRef{"11111111"}, be.Failed)
		assert.Equal(t, 2, exitCode(err))
		assert.Equal(t, "abcdef12  <-  deadbeef\n", buf.String())
	})
}

func TestLinkCommand_ServerPartialFailure(t *testing.T) {
	srv := newLinkServer(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"link", "--server", srv.URL, "--on-failure", "collect", fixHash, rootHash})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, buf.String(), "abcdef12  <-  deadbeef")
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		has     []string
		lacks   []string
	}{
		{"link", []string{"workers", "on-failure", "server", "no-cache"}, nil},
		{"watch", []string{"workers", "fixes", "no-cache"}, []string{"on-failure"}},
		{"blame", []string{"no-cache"}, []string{"workers", "on-failure"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.has {
				assert.NotNil(t, cmd.Flags().Lookup(name), name)
			}
			for _, name := range tt.lacks {
				assert.Nil(t, cmd.Flags().Lookup(name), name)
			}
		})
	}
}
