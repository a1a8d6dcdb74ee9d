package linker

import (
	"fmt"
	"strings"

	"szz/internal/errors"
	"szz/internal/revision"
)

// CommitError ties a failure to the fix commit being processed.
type CommitError struct {
	Commit string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("linking %s: %v", e.Commit, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// BatchError reports every fix commit that could not be linked.
type BatchError struct {
	Failed []revision.CommitRef
	errs   []error
}

func (e *BatchError) Error() string {
	names := make([]string, len(e.Failed))
	for i, c := range e.Failed {
		names[i] = string(c)
	}
	return fmt.Sprintf("%d fix commit(s) could not be linked (%s): %v",
		len(e.Failed), strings.Join(names, ", "), errors.Join(e.errs...))
}

func (e *BatchError) Unwrap() []error {
	return e.errs
}
