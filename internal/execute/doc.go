// Package execute runs a prompt config against a model.
//
// Only a simulated model exists: Mock waits a fixed delay and returns canned
// output with randomized token and latency statistics. Guard wraps any
// Executor so that at most one execution is in flight.
package execute
