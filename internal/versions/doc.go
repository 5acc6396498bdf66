// Package versions is the version record store.
//
// A Store exclusively owns the ordered collection of saved prompt versions,
// newest first. Every mutation builds a new collection, persists it, swaps it
// in, and then notifies observers synchronously:
//
//	next := build(current)
//	persister.WriteCollection(ctx, next) // failure leaves current untouched
//	current = next
//	notify(Event{Kind, IDs, Revision})
//
// Version numbers come from a persisted high-water counter, so numbers keep
// increasing in creation order and are never reused after deletions.
//
// Callers receive copies. prompt.Version holds no shared references, so
// nothing a caller does to a returned value reaches the store.
package versions
