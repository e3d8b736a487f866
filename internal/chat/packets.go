package chat

import "github.com/danmuck/peerline/internal/packet"

const (
	KindHello packet.Kind = "hello"
	KindText  packet.Kind = "text"
)

// Hello announces the sender's display name. It is sent on connect and
// again on every rename.
type Hello struct {
	Name string `cbor:"name"`
}

func (Hello) Kind() packet.Kind { return KindHello }

type Text struct {
	From string `cbor:"from"`
	Body string `cbor:"body"`
}

func (Text) Kind() packet.Kind { return KindText }

var packets = packet.NewBuilder[*peer]().Add(
	packet.On((*peer).onHello),
	packet.On((*peer).onText),
).MustBuild()
