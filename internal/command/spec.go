package command

import (
	"fmt"
	"strings"
)

// Flags select the catalog tier a shape is stored under.
type Flags uint8

const (
	// UniqueName: no other shape shares the name.
	UniqueName Flags = 1 << iota
	// UniqueArgumentCount: no other shape with this name shares the arity.
	UniqueArgumentCount
	// OneLongArgument: the shape takes the untokenized remainder of the line.
	OneLongArgument
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	parts := make([]string, 0, 3)
	if f.Has(UniqueName) {
		parts = append(parts, "unique_name")
	}
	if f.Has(UniqueArgumentCount) {
		parts = append(parts, "unique_argument_count")
	}
	if f.Has(OneLongArgument) {
		parts = append(parts, "one_long_argument")
	}
	return strings.Join(parts, "|")
}

// Spec declares one command shape.
type Spec struct {
	Name     string
	Arity    int
	Priority int
	Flags    Flags
}

func (s Spec) Validate() error {
	if s.Name == "" || strings.IndexFunc(s.Name, isSpace) >= 0 {
		return fmt.Errorf("%w: name %q", ErrInvalidSpec, s.Name)
	}
	if s.Arity < 0 {
		return fmt.Errorf("%w: %s has negative arity %d", ErrInvalidSpec, s.Name, s.Arity)
	}
	if s.Flags.Has(OneLongArgument) && s.Arity != 1 {
		return fmt.Errorf("%w: %s takes one long argument but declares arity %d", ErrInvalidSpec, s.Name, s.Arity)
	}
	return nil
}

func (s Spec) uniqueArity() bool {
	return s.Flags.Has(UniqueArgumentCount) || s.Flags.Has(UniqueName) || s.Flags.Has(OneLongArgument)
}
