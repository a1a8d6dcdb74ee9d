package linker

import (
	"encoding/json"
	"slices"

	"szz/internal/diff"
	"szz/internal/revision"
)

// FileRangeMap holds the parent-side ranges a commit changed, per file.
type FileRangeMap map[string][]diff.LineRange

// OriginSet is a set of normalized commit ids.
type OriginSet map[revision.CommitRef]struct{}

func NewOriginSet(commits ...revision.CommitRef) OriginSet {
	s := make(OriginSet, len(commits))
	for _, c := range commits {
		s.Add(c)
	}
	return s
}

func (s OriginSet) Add(c revision.CommitRef) {
	s[c] = struct{}{}
}

func (s OriginSet) Has(c revision.CommitRef) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in ascending order.
func (s OriginSet) Sorted() []revision.CommitRef {
	out := make([]revision.CommitRef, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Strings is Sorted as plain strings.
func (s OriginSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, c := range sorted {
		out[i] = string(c)
	}
	return out
}

func (s OriginSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *OriginSet) UnmarshalJSON(data []byte) error {
	var commits []revision.CommitRef
	if err := json.Unmarshal(data, &commits); err != nil {
		return err
	}
	*s = NewOriginSet(commits...)
	return nil
}

// BugLinkMap maps each normalized fix commit to the commits that last
// touched the lines it changed.
type BugLinkMap map[revision.CommitRef]OriginSet

// Report is the outcome of a batch in which per-commit failures are
// collected instead of aborting.
type Report struct {
	Links    BugLinkMap
	Failures map[revision.CommitRef]error
}

// Err joins the failures, sorted by commit, or returns nil.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	keys := make([]revision.CommitRef, 0, len(r.Failures))
	for k := range r.Failures {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, r.Failures[k])
	}
	return &BatchError{Failed: keys, errs: errs}
}
