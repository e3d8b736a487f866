package command

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/peerline/internal/testutil/testlog"
)

func noop[C any](*recorder, C) error { return nil }

func TestBuildRejectsDuplicateUniqueName(t *testing.T) {
	testlog.Start(t)
	_, err := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "quit", Flags: UniqueName}, Empty[Exit], noop[Exit]),
			On(Spec{Name: "quit", Flags: UniqueName}, Empty[Exit], noop[Exit]),
		).
		Build()
	if !errors.Is(err, ErrDuplicateUniqueName) {
		t.Fatalf("expected ErrDuplicateUniqueName, got %v", err)
	}
}

func TestBuildRejectsUniqueNameSharedWithOtherShape(t *testing.T) {
	testlog.Start(t)
	_, err := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "quit", Arity: 1}, func(a []string) (string, error) { return a[0], nil }, noop[string]),
			On(Spec{Name: "quit", Flags: UniqueName}, Empty[Exit], noop[Exit]),
		).
		Build()
	if !errors.Is(err, ErrIncompatibleTier) {
		t.Fatalf("expected ErrIncompatibleTier, got %v", err)
	}
}

func TestBuildRejectsLongMixedWithTokenized(t *testing.T) {
	testlog.Start(t)
	_, err := NewBuilder[*recorder]().
		Add(
			OnLong(Spec{Name: "say"}, func(*recorder, string) error { return nil }),
			On(Spec{Name: "say", Arity: 2}, func(a []string) ([]string, error) { return a, nil }, noop[[]string]),
		).
		Build()
	if !errors.Is(err, ErrIncompatibleTier) {
		t.Fatalf("expected ErrIncompatibleTier, got %v", err)
	}
}

func TestBuildRejectsDuplicateUniqueArgumentCount(t *testing.T) {
	testlog.Start(t)
	_, err := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "kick", Arity: 1, Flags: UniqueArgumentCount}, func(a []string) (string, error) { return a[0], nil }, noop[string]),
			On(Spec{Name: "kick", Arity: 1}, func(a []string) (int, error) { return ParseInt(a[0]) }, noop[int]),
		).
		Build()
	if !errors.Is(err, ErrDuplicateArity) {
		t.Fatalf("expected ErrDuplicateArity, got %v", err)
	}
}

func TestBuildRejectsInvalidSpec(t *testing.T) {
	testlog.Start(t)
	cases := []*Descriptor[*recorder]{
		On(Spec{Name: ""}, Empty[Exit], noop[Exit]),
		On(Spec{Name: "two words"}, Empty[Exit], noop[Exit]),
		On(Spec{Name: "neg", Arity: -1}, Empty[Exit], noop[Exit]),
		nil,
	}
	for _, d := range cases {
		if _, err := NewBuilder[*recorder]().Add(d).Build(); !errors.Is(err, ErrInvalidSpec) {
			t.Fatalf("expected ErrInvalidSpec for %+v, got %v", d, err)
		}
	}
}

func TestMustBuildPanicsOnConflict(t *testing.T) {
	testlog.Start(t)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDuplicateUniqueName) {
			t.Fatalf("expected ErrDuplicateUniqueName panic, got %v", r)
		}
	}()
	NewBuilder[*recorder]().
		Add(ExitCommand[*recorder](), ExitCommand[*recorder]()).
		MustBuild()
}

func TestBuildOrderDoesNotMatter(t *testing.T) {
	testlog.Start(t)
	a := On(Spec{Name: "say", Arity: 1}, func(a []string) (string, error) { return a[0], nil }, noop[string])
	b := On(Spec{Name: "say", Arity: 2, Priority: 1}, func(a []string) ([]string, error) { return a, nil }, noop[[]string])
	p := On(Spec{Name: "ping", Flags: UniqueName}, Empty[ping], noop[ping])

	first := NewResolver(NewBuilder[*recorder]().Add(a, b, p).MustBuild(), nil)
	second := NewResolver(NewBuilder[*recorder]().Add(p, b, a).MustBuild(), nil)
	for _, line := range []string{"say x", "say x y", "ping", "say"} {
		r1, _ := first.Resolve(line)
		r2, _ := second.Resolve(line)
		if len(r1.Candidates) != len(r2.Candidates) || !reflect.DeepEqual(r1.Args, r2.Args) {
			t.Fatalf("line %q resolved differently: %+v vs %+v", line, r1, r2)
		}
		if r1.Candidates[0].Spec() != r2.Candidates[0].Spec() {
			t.Fatalf("line %q resolved to different shapes", line)
		}
	}
}

func TestUniqueArgumentCountStoresSingletons(t *testing.T) {
	testlog.Start(t)
	c := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "kick", Arity: 1, Flags: UniqueArgumentCount}, func(a []string) (string, error) { return a[0], nil }, noop[string]),
			On(Spec{Name: "kick", Arity: 2, Flags: UniqueArgumentCount}, func(a []string) ([]string, error) { return a, nil }, noop[[]string]),
		).
		MustBuild()
	r := NewResolver(c, nil)
	res, _ := r.Resolve("kick a b")
	if len(res.Candidates) != 1 || res.Candidates[0].Arity() != 2 || res.Outcome != Matched {
		t.Fatalf("unexpected candidates: %+v", res.Candidates)
	}
	res, _ = r.Resolve("kick a b c")
	if res.Outcome != WrongArgumentCount || res.Candidates[0].Name() != badArgumentCountSpec.Name {
		t.Fatalf("expected bad argument count, got %+v", res)
	}
}

func TestCatalogNamesSorted(t *testing.T) {
	testlog.Start(t)
	c := scenarioCatalog(t)
	if got := c.Names(); !reflect.DeepEqual(got, []string{"ping", "say"}) {
		t.Fatalf("names got=%v", got)
	}
}

func TestFlagsString(t *testing.T) {
	if got := (UniqueName | OneLongArgument).String(); got != "unique_name|one_long_argument" {
		t.Fatalf("unexpected flags string %q", got)
	}
	if got := Flags(0).String(); got != "none" {
		t.Fatalf("unexpected flags string %q", got)
	}
}
