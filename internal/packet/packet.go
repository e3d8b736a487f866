package packet

import (
	"errors"
	"fmt"
)

// Kind identifies a packet shape on the wire.
type Kind string

// Packet is an immutable value payload exchanged between peers. Kind must
// be implemented on the value type so a zero value can report it.
type Packet interface {
	Kind() Kind
}

const KindEnd Kind = "end"

// EndSignal asks the receiving session to shut down gracefully.
type EndSignal struct {
	Reason string `cbor:"reason"`
}

func (EndSignal) Kind() Kind { return KindEnd }

var (
	ErrDuplicateKind = errors.New("packet: duplicate handler for kind")
	ErrReservedKind  = errors.New("packet: reserved kind")
	ErrInvalidKind   = errors.New("packet: invalid kind")
	ErrUnhandledKind = errors.New("packet: unhandled kind")
	ErrDecode        = errors.New("packet: decode failed")
)

// EndReceived is returned by the EndSignal handler: the peer closed the
// session normally with Reason.
type EndReceived struct {
	Reason string
}

func (e *EndReceived) Error() string {
	return fmt.Sprintf("packet: end received: %s", e.Reason)
}
