package merge

import (
	"errors"
	"fmt"
)

var (
	// ErrRenameConflict is the sentinel behind RenameConflictError.
	ErrRenameConflict = errors.New("rename conflict")
	// ErrSelfMerge reports a merge of a fragment into itself.
	ErrSelfMerge = errors.New("source and target are the same fragment")
	// ErrAlreadyMerged reports a second Merge call on one Merger.
	ErrAlreadyMerged = errors.New("merge already performed")
)

// RenameConflictError reports a requested name that cannot be granted.
type RenameConflictError struct {
	// Original is the source definition's name.
	Original string
	// Requested is the name the caller asked for.
	Requested string
	// Holder is set when the name is claimed by another source definition
	// of the same merge rather than by the target.
	Holder string
}

func (e *RenameConflictError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("requested symbol rename @%s -> @%s conflicts with @%s of the same merge", e.Original, e.Requested, e.Holder)
	}
	return fmt.Sprintf("requested symbol rename @%s -> @%s exists in the target", e.Original, e.Requested)
}

// Unwrap lets errors.Is match ErrRenameConflict.
func (e *RenameConflictError) Unwrap() error { return ErrRenameConflict }
