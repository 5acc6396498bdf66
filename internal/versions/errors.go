package versions

import "errors"

var (
	// ErrNoResult is returned by Append when the snapshot carries no execution
	// metadata. Saving requires a prior successful run.
	ErrNoResult = errors.New("no execution result to save")

	// ErrNotFound is returned when no version matches an id or label.
	ErrNotFound = errors.New("version not found")
)
