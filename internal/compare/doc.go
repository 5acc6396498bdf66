// Package compare selects two saved versions and compares them side by side.
//
// A Selector holds two slots, A and B, and moves through three states:
//
//	Idle      - zero or one slot resolves to an existing version
//	Ready     - both slots hold distinct, existing versions
//	Comparing - Compare succeeded and no selection changed since
//
// The state is derived on every read, so deleting a selected version drops
// the selector back to Idle without any notification.
//
// Build is the pure projection behind Compare: a paired metadata table,
// unified diffs of both prompts and the output, and whether the two configs
// share a fingerprint.
package compare
