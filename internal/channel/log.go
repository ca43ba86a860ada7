package channel

import (
	"fmt"
	"reflect"
)

// Entry is an element of a log channel. Key must be stable for the lifetime of
// the entry and unique within the log.
type Entry interface {
	Key() string
}

// Upsert replaces entries whose key is already present, in place, and appends
// the rest in the order given. Repeated keys inside one delta collapse to the
// last value at the position of the first.
type Upsert[T Entry] struct {
	Entries []T
}

// Remove deletes entries by key. Unknown keys are ignored.
type Remove struct {
	IDs []string
}

// UpsertOf is shorthand for building an Upsert delta.
func UpsertOf[T Entry](entries ...T) Upsert[T] {
	return Upsert[T]{Entries: entries}
}

// RemoveOf is shorthand for building a Remove delta.
func RemoveOf(ids ...string) Remove {
	return Remove{IDs: ids}
}

// LogOf declares an ordered, identified log of T.
func LogOf[T Entry](name string) Spec {
	return Spec{Name: name, Type: reflect.TypeFor[[]T](), Reducer: logReducer[T]{}}
}

type logReducer[T Entry] struct{}

func (logReducer[T]) Reduce(current, delta any) (any, error) {
	var cur []T
	if current != nil {
		c, ok := current.([]T)
		if !ok {
			return nil, fmt.Errorf("%w: log holds %T", ErrDeltaType, current)
		}
		cur = c
	}

	switch d := delta.(type) {
	case Upsert[T]:
		return upsert(cur, d.Entries), nil
	case Remove:
		return remove(cur, d.IDs), nil
	default:
		return nil, fmt.Errorf("%w: log of %s accepts Upsert or Remove, got %T", ErrDeltaType, reflect.TypeFor[T](), delta)
	}
}

func (logReducer[T]) Diff(before, after any) []any {
	prev, _ := before.([]T)
	next, _ := after.([]T)

	kept := make(map[string]struct{}, len(next))
	for _, e := range next {
		kept[e.Key()] = struct{}{}
	}
	var gone []string
	for _, e := range prev {
		if _, ok := kept[e.Key()]; !ok {
			gone = append(gone, e.Key())
		}
	}

	var deltas []any
	if len(gone) > 0 {
		deltas = append(deltas, Remove{IDs: gone})
	}
	if len(next) > 0 {
		deltas = append(deltas, Upsert[T]{Entries: next})
	}
	return deltas
}

func (logReducer[T]) Initial() (any, bool) {
	return []T{}, true
}

func upsert[T Entry](cur, entries []T) []T {
	out := make([]T, len(cur), len(cur)+len(entries))
	copy(out, cur)

	pos := make(map[string]int, len(out))
	for i, e := range out {
		pos[e.Key()] = i
	}
	for _, e := range entries {
		if i, ok := pos[e.Key()]; ok {
			out[i] = e
			continue
		}
		pos[e.Key()] = len(out)
		out = append(out, e)
	}
	return out
}

func remove[T Entry](cur []T, ids []string) []T {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]T, 0, len(cur))
	for _, e := range cur {
		if _, ok := drop[e.Key()]; !ok {
			out = append(out, e)
		}
	}
	return out
}
