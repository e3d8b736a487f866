package command

import "fmt"

// Descriptor binds one command shape to the handler that accepts it.
type Descriptor[H any] struct {
	spec   Spec
	invoke func(h H, args []string) error
}

// On binds a shape whose payload is built from positional arguments.
func On[H, C any](spec Spec, construct func(args []string) (C, error), handle func(H, C) error) *Descriptor[H] {
	return &Descriptor[H]{
		spec: spec,
		invoke: func(h H, args []string) error {
			c, err := construct(args)
			if err != nil {
				return err
			}
			return handle(h, c)
		},
	}
}

// OnLong binds a shape that receives the untokenized line remainder.
func OnLong[H any](spec Spec, handle func(h H, rest string) error) *Descriptor[H] {
	spec.Flags |= OneLongArgument
	spec.Arity = 1
	return &Descriptor[H]{
		spec: spec,
		invoke: func(h H, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: %s expects one long argument, got %d", ErrInvalidSpec, spec.Name, len(args))
			}
			return handle(h, args[0])
		},
	}
}

// Empty constructs the zero value of a shape without arguments.
func Empty[C any](args []string) (C, error) {
	var c C
	if len(args) != 0 {
		return c, ParseErrorf("expected no arguments, got %d", len(args))
	}
	return c, nil
}

func (d *Descriptor[H]) Spec() Spec {
	return d.spec
}

func (d *Descriptor[H]) Name() string {
	return d.spec.Name
}

func (d *Descriptor[H]) Arity() int {
	return d.spec.Arity
}

func (d *Descriptor[H]) Priority() int {
	return d.spec.Priority
}

// Invoke constructs the payload from args and calls the bound handler.
func (d *Descriptor[H]) Invoke(h H, args []string) error {
	return d.invoke(h, args)
}
