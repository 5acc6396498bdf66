package compare

import "errors"

var (
	// ErrSameVersion is returned when a slot is given the version the other
	// slot already holds.
	ErrSameVersion = errors.New("version already selected in the other slot")

	// ErrNotFound is returned when the selected id does not exist.
	ErrNotFound = errors.New("version not found")

	// ErrNotEnoughVersions is returned when fewer than two versions exist.
	ErrNotEnoughVersions = errors.New("at least two versions are required to compare")

	// ErrNotReady is returned by Compare unless both slots hold distinct,
	// existing versions.
	ErrNotReady = errors.New("select two different versions to compare")

	// ErrUnknownSlot is returned for a slot other than A or B.
	ErrUnknownSlot = errors.New("unknown slot")
)
