// Package prompt defines the data model shared by every promptlab package.
//
// This package contains value types and pure helpers only. Other internal
// packages import prompt; prompt imports nothing internal.
//
// Key design constraints:
//   - Version is immutable once created except for Note
//   - Version values carry no shared references, so copies are deep copies
//   - All JSON tags use snake_case
//   - Config fingerprints use canonical JSON, which forbids floats, so the
//     temperature is hashed as hundredths
package prompt
