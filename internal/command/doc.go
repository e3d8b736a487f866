// Package command owns operator command shapes and their dispatch.
//
// Ownership boundary:
// - manifest bindings (shape spec -> constructor -> handler)
// - catalog build with tiered entries (unique name, one long argument, per-arity sets)
// - line resolution and priority-ordered candidate trial
// - built-in shapes: not found, bad argument count, exit
package command
