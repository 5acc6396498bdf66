// Package store provides SQLite-backed durable storage for promptlab.
//
// The store is the local persistence boundary of the application:
//   - Versions: the ordered version collection, replaced wholesale on every
//     mutation inside a single transaction
//   - Records: named JSON documents (draft config, auth session, mock
//     accounts, version counter), each replaced wholesale on write
//
// # Critical Patterns
//
// Wholesale replacement:
//   - WriteCollection deletes and re-inserts every version in one transaction
//   - Readers never observe a partially written collection
//
// Deterministic ordering:
//   - Versions are read ORDER BY position ASC; position 0 is the newest
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Documents are field-named JSON. There is no schema versioning of documents;
// table layout is tracked with PRAGMA user_version.
package store
