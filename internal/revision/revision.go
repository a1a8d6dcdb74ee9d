// Package revision canonicalizes commit identifiers for display and set
// membership.
package revision

import (
	"regexp"

	"szz/internal/errors"
)

// ShortLen is the width of a normalized commit id.
const ShortLen = 8

// CommitRef is a normalized commit id. It is lossy: never pass one to a
// query that needs an unambiguous reference.
type CommitRef string

func (c CommitRef) String() string {
	return string(c)
}

// Normalize returns the first ShortLen characters of commit.
func Normalize(commit string) (CommitRef, error) {
	if commit == "" {
		return "", errors.InvalidReference("empty commit reference")
	}
	if len(commit) > ShortLen {
		commit = commit[:ShortLen]
	}
	return CommitRef(commit), nil
}

// MustNormalize is Normalize for ids already known to be non-empty.
func MustNormalize(commit string) CommitRef {
	ref, err := Normalize(commit)
	if err != nil {
		panic(err)
	}
	return ref
}

// Parent returns the reference to the first parent of commit.
func Parent(commit string) string {
	return commit + "^"
}

var immutableRef = regexp.MustCompile(`^(?:[0-9a-fA-F]{7,40}|[0-9a-fA-F]{64})\^*$`)

// IsImmutable reports whether ref names an object id (optionally with parent
// suffixes) rather than a symbolic ref that can move, such as HEAD or a
// branch name.
func IsImmutable(ref string) bool {
	return immutableRef.MatchString(ref)
}
