package packet

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/peerline/internal/protocol/frame"
	"github.com/fxamacker/cbor/v2"
)

// Decoder turns a wire kind and body into a packet value.
type Decoder interface {
	Decode(kind Kind, body []byte) (Packet, error)
}

type envelope struct {
	Kind Kind            `cbor:"1,keyasint"`
	Body cbor.RawMessage `cbor:"2,keyasint"`
}

// Stream reads and writes packets over one byte stream. Read must only be
// called from one goroutine; Write is safe for concurrent use.
type Stream struct {
	r      *bufio.Reader
	w      io.Writer
	dec    Decoder
	limits frame.Limits

	wmu sync.Mutex
	seq uint64
}

func NewStream(rw io.ReadWriter, dec Decoder, limits frame.Limits) *Stream {
	if limits.MaxPayloadBytes == 0 {
		limits = frame.DefaultLimits()
	}
	return &Stream{
		r:      bufio.NewReader(rw),
		w:      rw,
		dec:    dec,
		limits: limits,
	}
}

// Read blocks until the next packet arrives.
func (s *Stream) Read() (Packet, error) {
	f, err := frame.ReadFrame(s.r, s.limits)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := decMode.Unmarshal(f.Payload, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrDecode, err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: envelope without kind", ErrDecode)
	}
	return s.dec.Decode(env.Kind, env.Body)
}

func (s *Stream) Write(p Packet) error {
	body, err := encMode.Marshal(p)
	if err != nil {
		return fmt.Errorf("packet: encode %q: %w", p.Kind(), err)
	}
	payload, err := encMode.Marshal(envelope{Kind: p.Kind(), Body: body})
	if err != nil {
		return fmt.Errorf("packet: encode envelope %q: %w", p.Kind(), err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.seq++
	return frame.WriteFrame(s.w, frame.Frame{
		Header:  frame.Header{Sequence: s.seq},
		Payload: payload,
	}, s.limits)
}
