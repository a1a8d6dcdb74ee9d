package diff

import (
	"regexp"
	"strconv"

	"szz/internal/errors"
)

// hunkHeader matches "@@ -<old>[,<n>] +<new>[,<n>] @@" with an optional
// trailing section heading, which git appends after the closing "@@".
var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(?: .*)?$`)

// ParseHunkHeader parses a unified-diff hunk header. A side without a count
// covers a single line.
func ParseHunkHeader(line string) (Hunk, error) {
	m := hunkHeader.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, errors.ParseError("malformed hunk header %q", line)
	}

	nums := make([]int, 4)
	for i, s := range m[1:5] {
		if s == "" {
			nums[i] = 1
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Hunk{}, errors.ParseError("malformed hunk header %q: %v", line, err)
		}
		nums[i] = n
	}

	h := Hunk{OldStart: nums[0], OldLines: nums[1], NewStart: nums[2], NewLines: nums[3]}
	if h.OldLines > 0 && h.OldStart == 0 {
		return Hunk{}, errors.ParseError("hunk header %q removes lines starting at line 0", line)
	}
	return h, nil
}

// OldRanges parses every header and returns the parent-side ranges, skipping
// hunks that remove nothing. The first malformed header aborts the parse.
func OldRanges(headers []string) ([]LineRange, error) {
	var ranges []LineRange
	for _, line := range headers {
		h, err := ParseHunkHeader(line)
		if err != nil {
			return nil, err
		}
		if r, ok := h.OldRange(); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges, nil
}
