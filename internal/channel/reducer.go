package channel

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUndeclared is returned when a write or read targets a channel that
	// is not part of the state's schema.
	ErrUndeclared = errors.New("channel not declared")
	// ErrDeltaType is returned when a delta does not match the channel's type.
	ErrDeltaType = errors.New("delta type mismatch")
	// ErrNotPopulated is returned when a scalar channel is read before any
	// write.
	ErrNotPopulated = errors.New("channel not populated")
)

// Reducer merges a delta into a channel's current value.
type Reducer interface {
	// Reduce returns the new value. It must not mutate current.
	Reduce(current, delta any) (any, error)
	// Diff converts the effect of a nested run into deltas for this
	// reducer. before is the value the nested run was seeded with (nil if it
	// was not seeded) and after is the value it produced.
	Diff(before, after any) []any
	// Initial returns the value of a freshly created channel and whether
	// that value counts as populated.
	Initial() (any, bool)
}

// Spec declares a channel: its name, the Go type of its value and the
// reducer that merges writes.
type Spec struct {
	Name    string
	Type    reflect.Type
	Reducer Reducer
}

func (s Spec) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, s.Type)
}

// Compatible reports whether two declarations describe the same channel
// shape: equal value type and the same reducer kind.
func (s Spec) Compatible(other Spec) bool {
	return s.Type == other.Type && reflect.TypeOf(s.Reducer) == reflect.TypeOf(other.Reducer)
}

// Scalar declares an overwrite channel holding a T.
func Scalar[T any](name string) Spec {
	return Spec{Name: name, Type: reflect.TypeFor[T](), Reducer: overwrite[T]{}}
}

type overwrite[T any] struct{}

func (overwrite[T]) Reduce(_ any, delta any) (any, error) {
	v, ok := delta.(T)
	if !ok {
		return nil, fmt.Errorf("%w: want %s, got %T", ErrDeltaType, reflect.TypeFor[T](), delta)
	}
	return v, nil
}

func (overwrite[T]) Diff(_, after any) []any {
	return []any{after}
}

func (overwrite[T]) Initial() (any, bool) {
	var zero T
	return zero, false
}
