package diff

import (
	"testing"

	"szz/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Hunk
	}{
		{"both counts", "@@ -198,2 +198,2 @@", Hunk{198, 2, 198, 2}},
		{"single line", "@@ -198 +198 @@", Hunk{198, 1, 198, 1}},
		{"pure insertion", "@@ -10,0 +11,3 @@", Hunk{10, 0, 11, 3}},
		{"pure deletion", "@@ -4,2 +3,0 @@", Hunk{4, 2, 3, 0}},
		{"new file", "@@ -0,0 +1,12 @@", Hunk{0, 0, 1, 12}},
		{"section heading", "@@ -40,3 +40,4 @@ func main() {", Hunk{40, 3, 40, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHunkHeader(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHunkHeader_Malformed(t *testing.T) {
	for _, line := range []string{
		"@@ -198,2 +198,2",
		"-198,2 +198,2 @@",
		"@@ 198,2 198,2 @@",
		"@@ -x,2 +198,2 @@",
		"@@ -198,2 +198,2 @@garbage",
		"@@ -0,3 +1,3 @@",
		"",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseHunkHeader(line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParse))
		})
	}
}

func TestOldRanges(t *testing.T) {
	ranges, err := OldRanges([]string{
		"@@ -198,2 +198,2 @@",
		"@@ -210 +210 @@",
		"@@ -250,0 +251,4 @@",
		"@@ -300,5 +304,0 @@",
	})
	require.NoError(t, err)
	assert.Equal(t, []LineRange{{198, 2}, {210, 1}, {300, 5}}, ranges)
	for _, r := range ranges {
		assert.Positive(t, r.Count)
	}
}

func TestOldRanges_MalformedIsFatal(t *testing.T) {
	ranges, err := OldRanges([]string{"@@ -1,2 +1,2 @@", "@ -5,1 +5,1 @@"})
	require.Error(t, err)
	assert.Nil(t, ranges)
	assert.True(t, errors.Is(err, errors.ErrParse))
}

func TestEngine_Diff(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		old     string
		new     string
		headers string
	}{
		{
			name:    "modify middle",
			old:     "a\nb\nc\nd\n",
			new:     "a\nB\nC\nd\n",
			headers: "@@ -2,2 +2,2 @@\n",
		},
		{
			name:    "single line change",
			old:     "a\nb\nc\n",
			new:     "a\nX\nc\n",
			headers: "@@ -2 +2 @@\n",
		},
		{
			name:    "insert after second line",
			old:     "a\nb\nc\n",
			new:     "a\nb\nnew1\nnew2\nc\n",
			headers: "@@ -2,0 +3,2 @@\n",
		},
		{
			name:    "delete lines",
			old:     "a\nb\nc\nd\n",
			new:     "a\nd\n",
			headers: "@@ -2,2 +1,0 @@\n",
		},
		{
			name:    "new file",
			old:     "",
			new:     "a\nb\n",
			headers: "@@ -0,0 +1,2 @@\n",
		},
		{
			name:    "deleted file",
			old:     "a\nb\nc\n",
			new:     "",
			headers: "@@ -1,3 +0,0 @@\n",
		},
		{
			name:    "two hunks",
			old:     "a\nb\nc\nd\ne\n",
			new:     "A\nb\nc\nd\nE\n",
			headers: "@@ -1 +1 @@\n@@ -5 +5 @@\n",
		},
		{
			name:    "unchanged",
			old:     "a\nb\n",
			new:     "a\nb\n",
			headers: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(e.Diff(Lines(tt.old), Lines(tt.new)))
			assert.Equal(t, tt.headers, got)
		})
	}
}

func TestEngine_HeadersRoundTrip(t *testing.T) {
	hs := NewEngine().Diff(Lines("1\n2\n3\n4\n5\n6\n"), Lines("1\nx\n3\n4\n6\ny\n"))
	for _, h := range hs {
		parsed, err := ParseHunkHeader(h.Header())
		require.NoError(t, err)
		assert.Equal(t, h, parsed)
	}
}

func TestLineRange(t *testing.T) {
	r := LineRange{Start: 10, Count: 3}
	assert.Equal(t, 12, r.End())
	assert.Equal(t, "10,+3", r.String())
}
