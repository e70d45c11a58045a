// Package opt provides an optional value type for settings that may be left unset, such as a
// job id or a logs directory that was not given on the command line.
package opt

import (
	"fmt"
)

// Maybe holds either a value of type V or nothing.
type Maybe[V any] struct {
	defined bool
	value   V
}

// Some returns a Maybe that has a defined value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

// None returns a Maybe with no value.
func None[V any]() Maybe[V] { return Maybe[V]{} }

// NonEmpty returns Some(s) unless s is empty, in which case it returns None.
func NonEmpty(s string) Maybe[string] {
	if s == "" {
		return None[string]()
	}
	return Some(s)
}

// IsDefined returns true if the Maybe has a value.
func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the value if a value is defined, or the zero value for the type otherwise.
func (m Maybe[V]) Value() V { return m.value }

// OrElse returns the value of the Maybe if any, or the valueIfUndefined otherwise.
func (m Maybe[V]) OrElse(valueIfUndefined V) V {
	if m.defined {
		return m.value
	}
	return valueIfUndefined
}

// String returns the value's own String() if it has one, its %v form otherwise, or "[none]".
func (m Maybe[V]) String() string {
	if !m.defined {
		return "[none]"
	}
	var v interface{} = m.value
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.value)
}
