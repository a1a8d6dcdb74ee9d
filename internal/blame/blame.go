// Package blame parses per-line blame output.
package blame

import (
	"regexp"
	"strings"

	"szz/internal/errors"
)

// BoundaryMarker prefixes the commit id on lines git attributes to a
// boundary (root or range-limited) commit.
const BoundaryMarker = "^"

// Abbreviated ids, full SHA-1 ids, or full SHA-256 ids.
var commitID = regexp.MustCompile(`^(?:[0-9a-fA-F]{4,40}|[0-9a-fA-F]{64})$`)

// Line is one attributed source line.
type Line struct {
	Commit   string
	Boundary bool
	Rest     string
}

// ParseLine splits a blame output line into the commit id that last touched
// it and the remainder, which is not interpreted.
func ParseLine(line string) (Line, error) {
	token, rest, found := strings.Cut(line, " ")
	if !found && token == "" {
		return Line{}, errors.ParseError("empty blame line")
	}

	var l Line
	if strings.HasPrefix(token, BoundaryMarker) {
		l.Boundary = true
		token = strings.TrimPrefix(token, BoundaryMarker)
	}
	if !commitID.MatchString(token) {
		return Line{}, errors.ParseError("blame line %q does not start with a commit id", line)
	}
	l.Commit = token
	l.Rest = rest
	return l, nil
}

// Commits parses every line and returns the commit ids in output order,
// duplicates included.
func Commits(lines []string) ([]string, error) {
	commits := make([]string, 0, len(lines))
	for _, line := range lines {
		l, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		commits = append(commits, l.Commit)
	}
	return commits, nil
}
