package blame

import (
	"bufio"
	"regexp"
	"strings"

	"szz/internal/errors"
)

// The id is 40 hex characters in SHA-1 repositories and 64 in SHA-256 ones.
var porcelainHeader = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64}) \d+ \d+(?: \d+)?$`)

// FromPorcelain converts `git blame --line-porcelain` output into one
// "<commit> <content>" line per blamed source line.
func FromPorcelain(out string) ([]string, error) {
	var lines []string
	var current string

	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		switch {
		case current == "":
			m := porcelainHeader.FindStringSubmatch(text)
			if m == nil {
				return nil, errors.ParseError("expected blame porcelain header, got %q", text)
			}
			current = m[1]
		case strings.HasPrefix(text, "\t"):
			lines = append(lines, current+" "+strings.TrimPrefix(text, "\t"))
			current = ""
		default:
			// author, committer, summary, filename and friends
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ParseError("reading blame porcelain: %v", err)
	}
	if current != "" {
		return nil, errors.ParseError("blame porcelain for %s ended without content line", current)
	}
	return lines, nil
}
