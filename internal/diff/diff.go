// internal/diff/diff.go
package diff

import (
	"bytes"
	"fmt"
	"strings"
)

// LineRange is a contiguous block of lines, 1-based, in the numbering of the
// file at the fix commit's parent.
type LineRange struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// End returns the last line covered by the range.
func (r LineRange) End() int {
	return r.Start + r.Count - 1
}

func (r LineRange) String() string {
	return fmt.Sprintf("%d,+%d", r.Start, r.Count)
}

// Hunk represents a continuous section of changes. Counts of zero mean the
// side is empty; git then reports the start as the line before the change.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
}

// OldRange returns the parent-side range of the hunk and false when the hunk
// removes nothing from the parent.
func (h Hunk) OldRange() (LineRange, bool) {
	if h.OldLines == 0 {
		return LineRange{}, false
	}
	return LineRange{Start: h.OldStart, Count: h.OldLines}, true
}

// Header formats the hunk the way git does with -U0: a count of one is
// omitted.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", side(h.OldStart, h.OldLines), side(h.NewStart, h.NewLines))
}

func side(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Op pairs a line of the old content with a line of the new content.
// OldNum or NewNum is zero when the line only exists on the other side.
type Op struct {
	OldNum int
	NewNum int
}

// Engine computes zero-context line diffs.
type Engine struct{}

// NewEngine creates a new diff engine
func NewEngine() *Engine {
	return &Engine{}
}

// Lines splits content into lines; a trailing newline does not start a new
// line.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// Diff returns the hunks turning oldLines into newLines, in order.
func (e *Engine) Diff(oldLines, newLines []string) []Hunk {
	return hunks(e.Align(oldLines, newLines))
}

// Align walks the longest common subsequence of the two inputs and returns
// one Op per matched, deleted or inserted line. Deletions are emitted before
// insertions within a changed region.
func (e *Engine) Align(oldLines, newLines []string) []Op {
	lcs := e.computeLCS(oldLines, newLines)

	ops := make([]Op, 0, len(oldLines)+len(newLines))
	i, j := 0, 0
	for i < len(oldLines) || j < len(newLines) {
		switch {
		case i < len(oldLines) && j < len(newLines) && oldLines[i] == newLines[j]:
			ops = append(ops, Op{OldNum: i + 1, NewNum: j + 1})
			i++
			j++
		case j == len(newLines) || (i < len(oldLines) && lcs[i+1][j] >= lcs[i][j+1]):
			ops = append(ops, Op{OldNum: i + 1})
			i++
		default:
			ops = append(ops, Op{NewNum: j + 1})
			j++
		}
	}
	return ops
}

// computeLCS fills a suffix matrix: lcs[i][j] is the LCS length of
// oldLines[i:] and newLines[j:].
func (e *Engine) computeLCS(oldLines, newLines []string) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := len(oldLines) - 1; i >= 0; i-- {
		for j := len(newLines) - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				matrix[i][j] = matrix[i+1][j+1] + 1
			} else {
				matrix[i][j] = max(matrix[i+1][j], matrix[i][j+1])
			}
		}
	}

	return matrix
}

func hunks(ops []Op) []Hunk {
	var result []Hunk
	var current *Hunk
	lastOld, lastNew := 0, 0

	flush := func() {
		if current == nil {
			return
		}
		if current.OldLines == 0 {
			current.OldStart = lastOld
		}
		if current.NewLines == 0 {
			current.NewStart = lastNew
		}
		result = append(result, *current)
		current = nil
	}

	for _, op := range ops {
		if op.OldNum != 0 && op.NewNum != 0 {
			flush()
			lastOld, lastNew = op.OldNum, op.NewNum
			continue
		}
		if current == nil {
			current = &Hunk{}
		}
		if op.OldNum != 0 {
			if current.OldLines == 0 {
				current.OldStart = op.OldNum
			}
			current.OldLines++
		} else {
			if current.NewLines == 0 {
				current.NewStart = op.NewNum
			}
			current.NewLines++
		}
	}
	flush()

	return result
}

// Format returns the hunk headers, one per line.
func Format(hs []Hunk) string {
	var buf bytes.Buffer
	for _, h := range hs {
		buf.WriteString(h.Header())
		buf.WriteString("\n")
	}
	return buf.String()
}
