package blame

import (
	"strings"
	"testing"

	"szz/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Line
	}{
		{
			name: "default format",
			line: "deadbeef (Jane Doe 2020-01-02 10:00:00 +0000 10) return x",
			want: Line{Commit: "deadbeef", Rest: "(Jane Doe 2020-01-02 10:00:00 +0000 10) return x"},
		},
		{
			name: "full hash",
			line: strings.Repeat("a", 40) + " content",
			want: Line{Commit: strings.Repeat("a", 40), Rest: "content"},
		},
		{
			name: "sha256 hash",
			line: strings.Repeat("e", 64) + " content",
			want: Line{Commit: strings.Repeat("e", 64), Rest: "content"},
		},
		{
			name: "boundary commit",
			line: "^1234567 (Jane 2019-01-01 1) package main",
			want: Line{Commit: "1234567", Boundary: true, Rest: "(Jane 2019-01-01 1) package main"},
		},
		{
			name: "id only",
			line: "cafebabe",
			want: Line{Commit: "cafebabe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{"", " deadbeef x", "not-a-hash (x) y", "abc x", "^ x", strings.Repeat("a", 41) + " x"} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParse))
		})
	}
}

func TestCommits(t *testing.T) {
	got, err := Commits([]string{"deadbeef a", "deadbeef b", "^cafebab c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeef", "deadbeef", "cafebab"}, got)

	_, err = Commits([]string{"deadbeef a", "???"})
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestFromPorcelain(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	out := strings.Join([]string{
		a + " 10 10 2",
		"author Jane",
		"author-mail <jane@example.com>",
		"summary first",
		"boundary",
		"filename foo.py",
		"\tdef f():",
		a + " 11 11",
		"author Jane",
		"filename foo.py",
		"\t    return 1",
		b + " 3 12 1",
		"author Joe",
		"previous " + a + " foo.py",
		"filename foo.py",
		"\t",
	}, "\n") + "\n"

	lines, err := FromPorcelain(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		a + " def f():",
		a + "     return 1",
		b + " ",
	}, lines)

	commits, err := Commits(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{a, a, b}, commits)
}

func TestFromPorcelain_SHA256(t *testing.T) {
	id := strings.Repeat("f", 64)
	out := id + " 1 1 1\nauthor Jane\nfilename foo.py\n\tx := 1\n"

	lines, err := FromPorcelain(out)
	require.NoError(t, err)
	assert.Equal(t, []string{id + " x := 1"}, lines)

	commits, err := Commits(lines)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, commits)
}

func TestFromPorcelain_Malformed(t *testing.T) {
	_, err := FromPorcelain("garbage\n\tcontent\n")
	assert.True(t, errors.Is(err, errors.ErrParse))

	_, err = FromPorcelain(strings.Repeat("c", 40) + " 1 1 1\nauthor x\n")
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestFromPorcelain_Empty(t *testing.T) {
	lines, err := FromPorcelain("")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
