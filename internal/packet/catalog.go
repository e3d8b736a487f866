package packet

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
)

// Descriptor binds one packet kind to its decoder and handler.
type Descriptor[H any] struct {
	kind   Kind
	decode func(body []byte) (Packet, error)
	invoke func(h H, p Packet) error
	err    error
}

// On binds handle to the kind reported by the zero value of P. Packets must
// be value types: a pointer or interface P is rejected by Build with
// ErrInvalidKind.
func On[H any, P Packet](handle func(H, P) error) *Descriptor[H] {
	switch t := reflect.TypeOf((*P)(nil)).Elem(); t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return &Descriptor[H]{err: fmt.Errorf("%w: %s must be a value type", ErrInvalidKind, t)}
	}
	var zero P
	return &Descriptor[H]{
		kind: zero.Kind(),
		decode: func(body []byte) (Packet, error) {
			var p P
			if err := decMode.Unmarshal(body, &p); err != nil {
				return nil, err
			}
			return p, nil
		},
		invoke: func(h H, p Packet) error {
			typed, ok := p.(P)
			if !ok {
				return fmt.Errorf("%w: %T for kind %q", ErrUnhandledKind, p, p.Kind())
			}
			return handle(h, typed)
		},
	}
}

func (d *Descriptor[H]) Kind() Kind {
	return d.kind
}

// Catalog maps packet kinds to their single handler for one connection
// type. It is immutable after Build.
type Catalog[H any] struct {
	byKind map[Kind]*Descriptor[H]
}

// Dispatch invokes the handler bound to p's kind.
func (c *Catalog[H]) Dispatch(h H, p Packet) error {
	d, ok := c.byKind[p.Kind()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnhandledKind, p.Kind())
	}
	return d.invoke(h, p)
}

// Decode builds the packet of kind from its CBOR body.
func (c *Catalog[H]) Decode(kind Kind, body []byte) (Packet, error) {
	d, ok := c.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnhandledKind, kind)
	}
	p, err := d.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrDecode, kind, err)
	}
	return p, nil
}

func (c *Catalog[H]) Kinds() []Kind {
	kinds := lo.Keys(c.byKind)
	slices.Sort(kinds)
	return kinds
}

// Builder collects a connection type's packet manifest.
type Builder[H any] struct {
	descs []*Descriptor[H]
}

func NewBuilder[H any]() *Builder[H] {
	return &Builder[H]{}
}

func (b *Builder[H]) Add(descs ...*Descriptor[H]) *Builder[H] {
	b.descs = append(b.descs, descs...)
	return b
}

func (b *Builder[H]) Build() (*Catalog[H], error) {
	c := &Catalog[H]{byKind: make(map[Kind]*Descriptor[H], len(b.descs)+1)}
	for _, d := range b.descs {
		if d == nil {
			return nil, ErrInvalidKind
		}
		if d.err != nil {
			return nil, d.err
		}
		if d.kind == "" {
			return nil, ErrInvalidKind
		}
		if d.kind == KindEnd {
			return nil, fmt.Errorf("%w: %q", ErrReservedKind, d.kind)
		}
		if _, ok := c.byKind[d.kind]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKind, d.kind)
		}
		c.byKind[d.kind] = d
	}
	c.byKind[KindEnd] = On(func(_ H, p EndSignal) error {
		return &EndReceived{Reason: p.Reason}
	})
	return c, nil
}

// MustBuild panics on a rejected manifest.
func (b *Builder[H]) MustBuild() *Catalog[H] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 4096,
		MaxMapPairs:      4096,
		MaxNestedLevels:  16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}
