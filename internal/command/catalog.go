package command

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"
)

// entry is the per-name catalog value, chosen at build time from the
// declared flags of the shapes sharing the name.
type entry[H any] interface {
	// long returns the one-long-argument candidates, or nil.
	long() []*Descriptor[H]
	// withArity returns the candidates for an observed argument count, or nil.
	withArity(n int) []*Descriptor[H]
}

type uniqueEntry[H any] struct {
	arity int
	set   []*Descriptor[H]
}

func (e uniqueEntry[H]) long() []*Descriptor[H] { return nil }

func (e uniqueEntry[H]) withArity(n int) []*Descriptor[H] {
	if n == e.arity {
		return e.set
	}
	return nil
}

type uniqueLongEntry[H any] struct {
	set []*Descriptor[H]
}

func (e uniqueLongEntry[H]) long() []*Descriptor[H] { return e.set }
func (e uniqueLongEntry[H]) withArity(int) []*Descriptor[H] { return nil }

type longEntry[H any] struct {
	set []*Descriptor[H]
}

func (e longEntry[H]) long() []*Descriptor[H] { return e.set }
func (e longEntry[H]) withArity(int) []*Descriptor[H] { return nil }

type tieredEntry[H any] struct {
	arities map[int][]*Descriptor[H]
}

func (e tieredEntry[H]) long() []*Descriptor[H] { return nil }

func (e tieredEntry[H]) withArity(n int) []*Descriptor[H] {
	return e.arities[n]
}

// Catalog is the built command lookup for one handler type. It is never
// written after Build and is safe for concurrent reads.
type Catalog[H any] struct {
	entries          map[string]entry[H]
	notFound         func(H, NotFound) error
	badArgumentCount func(H, BadArgumentCount) error
}

func (c *Catalog[H]) notFoundFor(input string) *Descriptor[H] {
	return bound(notFoundSpec, NotFound{Input: input}, c.notFound)
}

func (c *Catalog[H]) badArgumentCountFor(n int) *Descriptor[H] {
	return bound(badArgumentCountSpec, BadArgumentCount{Count: n}, c.badArgumentCount)
}

// Names returns the registered command names in lexical order.
func (c *Catalog[H]) Names() []string {
	names := lo.Keys(c.entries)
	slices.Sort(names)
	return names
}

func (c *Catalog[H]) lookup(name string) (entry[H], bool) {
	e, ok := c.entries[name]
	return e, ok
}

// Builder collects a handler type's manifest and compiles it into a Catalog.
type Builder[H any] struct {
	descs            []*Descriptor[H]
	notFound         func(H, NotFound) error
	badArgumentCount func(H, BadArgumentCount) error
}

func NewBuilder[H any]() *Builder[H] {
	return &Builder[H]{}
}

// Add appends manifest bindings. Declaration order breaks priority ties.
func (b *Builder[H]) Add(descs ...*Descriptor[H]) *Builder[H] {
	b.descs = append(b.descs, descs...)
	return b
}

// Fallbacks sets the handlers of the not-found and bad-argument-count
// pseudo shapes. Unset handlers do nothing.
func (b *Builder[H]) Fallbacks(notFound func(H, NotFound) error, badArgumentCount func(H, BadArgumentCount) error) *Builder[H] {
	b.notFound = notFound
	b.badArgumentCount = badArgumentCount
	return b
}

// MustBuild is Build for manifests that are fixed at compile time; a
// rejected manifest is a programming error.
func (b *Builder[H]) MustBuild() *Catalog[H] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

func (b *Builder[H]) Build() (*Catalog[H], error) {
	byName := make(map[string][]*Descriptor[H])
	order := make([]string, 0, len(b.descs))
	for _, d := range b.descs {
		if d == nil {
			return nil, fmt.Errorf("%w: nil descriptor", ErrInvalidSpec)
		}
		if err := d.spec.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byName[d.spec.Name]; !ok {
			order = append(order, d.spec.Name)
		}
		byName[d.spec.Name] = append(byName[d.spec.Name], d)
	}

	c := &Catalog[H]{entries: make(map[string]entry[H], len(byName))}
	for _, name := range order {
		e, err := buildEntry(name, byName[name])
		if err != nil {
			return nil, err
		}
		c.entries[name] = e
	}

	notFound := b.notFound
	if notFound == nil {
		notFound = func(H, NotFound) error { return nil }
	}
	badArgumentCount := b.badArgumentCount
	if badArgumentCount == nil {
		badArgumentCount = func(H, BadArgumentCount) error { return nil }
	}
	c.notFound = notFound
	c.badArgumentCount = badArgumentCount
	return c, nil
}

func buildEntry[H any](name string, descs []*Descriptor[H]) (entry[H], error) {
	uniques := lo.CountBy(descs, func(d *Descriptor[H]) bool { return d.spec.Flags.Has(UniqueName) })
	longs := lo.CountBy(descs, func(d *Descriptor[H]) bool { return d.spec.Flags.Has(OneLongArgument) })

	switch {
	case uniques > 1:
		return nil, fmt.Errorf("%w: %q declared %d times", ErrDuplicateUniqueName, name, uniques)
	case uniques == 1 && len(descs) > 1:
		return nil, fmt.Errorf("%w: %q is unique but shared by %d shapes", ErrIncompatibleTier, name, len(descs))
	case longs > 0 && longs != len(descs):
		return nil, fmt.Errorf("%w: %q mixes one-long-argument and tokenized shapes", ErrIncompatibleTier, name)
	}

	if uniques == 1 {
		d := descs[0]
		if longs == 1 {
			return uniqueLongEntry[H]{set: []*Descriptor[H]{d}}, nil
		}
		return uniqueEntry[H]{arity: d.spec.Arity, set: []*Descriptor[H]{d}}, nil
	}
	if longs > 0 {
		return longEntry[H]{set: byPriority(descs)}, nil
	}

	grouped := lo.GroupBy(descs, func(d *Descriptor[H]) int { return d.spec.Arity })
	arities := make(map[int][]*Descriptor[H], len(grouped))
	for arity, set := range grouped {
		if len(set) > 1 && lo.SomeBy(set, func(d *Descriptor[H]) bool { return d.spec.uniqueArity() }) {
			return nil, fmt.Errorf("%w: %q with %d arguments", ErrDuplicateArity, name, arity)
		}
		arities[arity] = byPriority(set)
	}
	return tieredEntry[H]{arities: arities}, nil
}

// byPriority orders candidates by descending priority, keeping declaration
// order for equal priorities.
func byPriority[H any](descs []*Descriptor[H]) []*Descriptor[H] {
	out := slices.Clone(descs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].spec.Priority > out[j].spec.Priority
	})
	return out
}
