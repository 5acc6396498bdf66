// Package playground is the application state container.
//
// A Playground owns the draft config and the result of its last run, and
// wires the collaborators together: runs go through the execution guard,
// saves append to the versions store, and list views project the store
// through a memoizing query projector. The draft and last result persist
// under the store's draft record, so a run in one CLI invocation can be
// saved from the next.
package playground
