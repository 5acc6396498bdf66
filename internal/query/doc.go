// Package query is the projection engine over the version collection.
//
// A Query (search text, model filter, sort field, sort order) is a pure
// function of the collection: Apply filters the versions and then sorts them
// stably. Nothing here mutates the store.
//
// Filtering is expressed as a small predicate tree:
//
//	And{Contains{"tone"}, ModelEquals{"gpt-4o"}}
//
// Predicate is a sealed interface, so Match can switch over every case.
//
// Search is a case-insensitive substring match using Unicode case folding
// against note, system prompt, user prompt, model and the "vN" label. Model
// sorting uses English collation.
package query
