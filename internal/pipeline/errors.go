package pipeline

import "fmt"

// MergeInvariantError reports a broken expectation at merge time: an item
// with nothing to merge, or an artifact that belongs to no item. It signals
// a bug, never a normal empty result.
type MergeInvariantError struct {
	Item   string
	Reason string
}

func (e *MergeInvariantError) Error() string {
	return fmt.Sprintf("merge invariant violated for item '%s': %s", e.Item, e.Reason)
}
