package channel

import (
	"fmt"
	"maps"
	"slices"
)

// Update is the set of deltas a node returns, keyed by channel name.
type Update map[string]any

// Batch is a sequence of deltas for one channel, applied in order. It lets a
// node both upsert and remove entries of a log in one update.
type Batch []any

// State holds the current value of every declared channel.
type State struct {
	specs     map[string]Spec
	values    map[string]any
	populated map[string]bool
}

// NewState creates a state for the given schema. Every channel starts at its
// reducer's initial value.
func NewState(specs ...Spec) (*State, error) {
	s := &State{
		specs:     make(map[string]Spec, len(specs)),
		values:    make(map[string]any, len(specs)),
		populated: make(map[string]bool, len(specs)),
	}
	for _, spec := range specs {
		if _, dup := s.specs[spec.Name]; dup {
			return nil, fmt.Errorf("channel '%s' declared twice", spec.Name)
		}
		s.specs[spec.Name] = spec
		s.values[spec.Name], s.populated[spec.Name] = spec.Reducer.Initial()
	}
	return s, nil
}

// Spec returns the declaration of a channel.
func (s *State) Spec(name string) (Spec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// Apply merges every delta of u through its channel's reducer. Channels are
// processed in name order, and nothing is committed if any delta fails.
func (s *State) Apply(u Update) error {
	next := make(map[string]any, len(u))
	for _, name := range slices.Sorted(maps.Keys(u)) {
		spec, ok := s.specs[name]
		if !ok {
			return fmt.Errorf("write to '%s': %w", name, ErrUndeclared)
		}
		cur, seen := next[name]
		if !seen {
			cur = s.values[name]
		}
		deltas, ok := u[name].(Batch)
		if !ok {
			deltas = Batch{u[name]}
		}
		for _, d := range deltas {
			v, err := spec.Reducer.Reduce(cur, d)
			if err != nil {
				return fmt.Errorf("write to '%s': %w", name, err)
			}
			cur = v
		}
		next[name] = cur
	}
	for name, v := range next {
		s.values[name] = v
		s.populated[name] = true
	}
	return nil
}

// ApplyAll applies a sequence of deltas to one channel, in order.
func (s *State) ApplyAll(name string, deltas []any) error {
	for _, d := range deltas {
		if err := s.Apply(Update{name: d}); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a channel's value and whether it has been populated.
func (s *State) Get(name string) (any, bool) {
	if !s.populated[name] {
		return nil, false
	}
	return s.values[name], true
}

// Populated reports whether the channel holds a value that may be read.
func (s *State) Populated(name string) bool {
	return s.populated[name]
}

// View returns a read-only snapshot of the named channels. Unpopulated
// channels are omitted.
func (s *State) View(names ...string) View {
	vals := make(map[string]any, len(names))
	for _, name := range names {
		if s.populated[name] {
			vals[name] = s.values[name]
		}
	}
	return View{values: vals}
}

// View is an immutable snapshot of channel values handed to a node.
type View struct {
	values map[string]any
}

// NewView builds a view from raw values. Intended for tests and routers.
func NewView(values map[string]any) View {
	return View{values: maps.Clone(values)}
}

// Get returns the raw value of a channel.
func (v View) Get(name string) (any, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Names returns the populated channel names in sorted order.
func (v View) Names() []string {
	return slices.Sorted(maps.Keys(v.values))
}

// Value reads a channel from a view as a T.
func Value[T any](v View, name string) (T, error) {
	var zero T
	raw, ok := v.values[name]
	if !ok {
		return zero, fmt.Errorf("read '%s': %w", name, ErrNotPopulated)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("read '%s': %w: want %T, got %T", name, ErrDeltaType, zero, raw)
	}
	return val, nil
}

// Entries reads a log channel from a view.
func Entries[T Entry](v View, name string) ([]T, error) {
	return Value[[]T](v, name)
}
