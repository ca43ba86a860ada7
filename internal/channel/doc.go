// Package channel implements the state model shared by every graph: named,
// typed slots whose writes are merged by a per-channel reducer.
//
// Two kinds of channel exist. A scalar channel (Scalar) keeps the last value
// written to it. A log channel (LogOf) keeps an ordered collection of
// identified entries and accepts two deltas: Upsert, which replaces entries
// in place by id and appends unseen ids in first-seen order, and Remove, which
// deletes entries by id. Both deltas are idempotent, and removing an absent id
// is a no-op.
//
// Reducers are pure. They never mutate the current value, which is what lets
// the executor hand the same slice to many concurrent readers without copying
// it. A State is not safe for concurrent writes; the executor serializes all
// commits through a single goroutine.
package channel
