package command

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateUniqueName = errors.New("command: duplicate unique name")
	ErrIncompatibleTier    = errors.New("command: name registered under incompatible tiers")
	ErrDuplicateArity      = errors.New("command: duplicate argument count for unique argument count shape")
	ErrInvalidSpec         = errors.New("command: invalid spec")
	ErrNoCandidates        = errors.New("command: no candidates")

	// ErrExit unwinds the application loop into orderly shutdown. It is a
	// control signal, not a failure.
	ErrExit = errors.New("command: exit")
)

// ParseError reports a tokenizing or argument-shape failure back to the operator.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

func ParseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}
