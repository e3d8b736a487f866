package command

const (
	ExitName = "exit"
	HelpName = "help"
)

// NotFound is the payload of the not-found fallback: the trimmed input line.
type NotFound struct {
	Input string
}

// BadArgumentCount is the payload of the wrong-arity fallback.
type BadArgumentCount struct {
	Count int
}

// Exit is the built-in zero-argument shutdown command.
type Exit struct{}

// Help lists the registered command names.
type Help struct{}

var (
	notFoundSpec         = Spec{Name: "<not found>", Arity: 1}
	badArgumentCountSpec = Spec{Name: "<bad argument count>", Arity: 1}
	exitSpec             = Spec{Name: ExitName, Flags: UniqueName}
	helpSpec             = Spec{Name: HelpName, Flags: UniqueName}
)

// bound wraps a payload fixed at resolution time; positional args are
// ignored.
func bound[H, C any](spec Spec, payload C, handle func(H, C) error) *Descriptor[H] {
	return &Descriptor[H]{
		spec: spec,
		invoke: func(h H, _ []string) error {
			return handle(h, payload)
		},
	}
}

// ExitCommand binds the built-in "exit" command, which always returns ErrExit.
func ExitCommand[H any]() *Descriptor[H] {
	return On(exitSpec, Empty[Exit], func(H, Exit) error {
		return ErrExit
	})
}

// HelpCommand binds the built-in "help" command to handle.
func HelpCommand[H any](handle func(H, Help) error) *Descriptor[H] {
	return On(helpSpec, Empty[Help], handle)
}
