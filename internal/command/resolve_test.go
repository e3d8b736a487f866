package command

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/peerline/internal/testutil/testlog"
	"github.com/danmuck/peerline/internal/tokenize"
)

type call struct {
	name string
	args []string
}

type recorder struct {
	calls    []call
	notFound []string
	badCount []int
}

func (r *recorder) record(name string, args ...string) {
	r.calls = append(r.calls, call{name: name, args: args})
}

type ping struct{}

type sayOne struct{ Text string }

type sayTwo struct{ A, B string }

func scenarioCatalog(t *testing.T) *Catalog[*recorder] {
	t.Helper()
	c, err := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "ping", Flags: UniqueName}, Empty[ping], func(r *recorder, _ ping) error {
				r.record("ping")
				return nil
			}),
			On(Spec{Name: "say", Arity: 1}, func(args []string) (sayOne, error) {
				return sayOne{Text: args[0]}, nil
			}, func(r *recorder, c sayOne) error {
				r.record("say1", c.Text)
				return nil
			}),
			On(Spec{Name: "say", Arity: 2, Priority: 1}, func(args []string) (sayTwo, error) {
				return sayTwo{A: args[0], B: args[1]}, nil
			}, func(r *recorder, c sayTwo) error {
				r.record("say2", c.A, c.B)
				return nil
			}),
		).
		Fallbacks(
			func(r *recorder, nf NotFound) error {
				r.notFound = append(r.notFound, nf.Input)
				return nil
			},
			func(r *recorder, bc BadArgumentCount) error {
				r.badCount = append(r.badCount, bc.Count)
				return nil
			},
		).
		Build()
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func TestResolveScenario(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	res := NewResolver(scenarioCatalog(t), nil)

	for _, line := range []string{"ping", "say hello", "say a b", "say", "foo"} {
		if err := res.Dispatch(rec, line); err != nil {
			t.Fatalf("dispatch %q: %v", line, err)
		}
	}

	want := []call{
		{name: "ping"},
		{name: "say1", args: []string{"hello"}},
		{name: "say2", args: []string{"a", "b"}},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Fatalf("calls got=%+v want=%+v", rec.calls, want)
	}
	if !reflect.DeepEqual(rec.badCount, []int{0}) {
		t.Fatalf("bad argument counts got=%v", rec.badCount)
	}
	if !reflect.DeepEqual(rec.notFound, []string{"foo"}) {
		t.Fatalf("not found got=%v", rec.notFound)
	}
}

func TestResolveUniqueNameWrongArityYieldsBadArgumentCount(t *testing.T) {
	testlog.Start(t)
	c := scenarioCatalog(t)
	r := NewResolver(c, nil)

	for argc, line := range []string{"", "ping a", "ping a b", "ping a b c"} {
		if line == "" {
			continue
		}
		res, ok := r.Resolve(line)
		if !ok {
			t.Fatalf("expected resolution for %q", line)
		}
		if len(res.Candidates) != 1 || res.Outcome != WrongArgumentCount || len(res.Args) != 0 {
			t.Fatalf("expected bad argument count for %q, got %+v", line, res.Candidates)
		}
		rec := &recorder{}
		if err := Invoke(rec, res); err != nil {
			t.Fatalf("invoke: %v", err)
		}
		if len(rec.calls) != 0 || !reflect.DeepEqual(rec.badCount, []int{argc}) {
			t.Fatalf("line %q: calls=%+v badCount=%v", line, rec.calls, rec.badCount)
		}
	}
}

func TestResolveNotFoundCarriesTrimmedLine(t *testing.T) {
	testlog.Start(t)
	c := scenarioCatalog(t)
	res, ok := NewResolver(c, nil).Resolve("  nope  a   b ")
	if !ok {
		t.Fatalf("expected resolution")
	}
	if res.Outcome != Unmatched || len(res.Candidates) != 1 {
		t.Fatalf("expected not found resolution, got %+v", res)
	}
	rec := &recorder{}
	if err := Invoke(rec, res); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !reflect.DeepEqual(rec.notFound, []string{"nope  a   b"}) {
		t.Fatalf("unexpected payload: %q", rec.notFound)
	}
}

func TestResolveBlankLineIsNoop(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	r := NewResolver(scenarioCatalog(t), nil)
	if _, ok := r.Resolve(" \t "); ok {
		t.Fatalf("expected no resolution for blank line")
	}
	if err := r.Dispatch(rec, ""); err != nil {
		t.Fatalf("dispatch blank: %v", err)
	}
	if len(rec.calls)+len(rec.notFound)+len(rec.badCount) != 0 {
		t.Fatalf("expected no invocation: %+v", rec)
	}
}

func TestResolveNameIsCaseSensitive(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	if err := NewResolver(scenarioCatalog(t), nil).Dispatch(rec, "PING"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual(rec.notFound, []string{"PING"}) {
		t.Fatalf("expected PING not found, got %+v", rec)
	}
}

func TestOneLongArgumentWinsRegardlessOfTokens(t *testing.T) {
	testlog.Start(t)
	var got []string
	c := NewBuilder[*recorder]().
		Add(OnLong(Spec{Name: "say", Flags: UniqueName}, func(_ *recorder, rest string) error {
			got = append(got, rest)
			return nil
		})).
		MustBuild()
	r := NewResolver(c, nil)

	lines := []string{"say", "say   hello", "say  hello   big\tworld  ", "say a b c d e f"}
	for _, line := range lines {
		if err := r.Dispatch(&recorder{}, line); err != nil {
			t.Fatalf("dispatch %q: %v", line, err)
		}
	}
	want := []string{"", "hello", "hello   big\tworld  ", "a b c d e f"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("long payloads got=%q want=%q", got, want)
	}
}

func TestSharedOneLongArgumentTriesByPriority(t *testing.T) {
	testlog.Start(t)
	var order []string
	c := NewBuilder[*recorder]().
		Add(
			OnLong(Spec{Name: "note", Priority: 0}, func(_ *recorder, rest string) error {
				order = append(order, "low:"+rest)
				return nil
			}),
			OnLong(Spec{Name: "note", Priority: 3}, func(_ *recorder, rest string) error {
				order = append(order, "high:"+rest)
				if !strings.HasPrefix(rest, "!") {
					return ParseErrorf("not a bang note")
				}
				return nil
			}),
		).
		MustBuild()
	r := NewResolver(c, nil)
	if err := r.Dispatch(&recorder{}, "note plain text"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{"high:plain text", "low:plain text"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order got=%v want=%v", order, want)
	}
}

func TestInvokeTriesCandidatesInDescendingPriority(t *testing.T) {
	testlog.Start(t)
	var attempts []string
	bind := func(label string, priority int, fail bool) *Descriptor[*recorder] {
		return On(Spec{Name: "set", Arity: 1, Priority: priority}, func(args []string) (string, error) {
			return args[0], nil
		}, func(_ *recorder, v string) error {
			attempts = append(attempts, label)
			if fail {
				return errors.New(label + " failed")
			}
			return nil
		})
	}
	c := NewBuilder[*recorder]().
		Add(
			bind("p0", 0, false),
			bind("p5a", 5, true),
			bind("p9", 9, true),
			bind("p5b", 5, false),
		).
		MustBuild()

	if err := NewResolver(c, nil).Dispatch(&recorder{}, "set x"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{"p9", "p5a", "p5b"}
	if !reflect.DeepEqual(attempts, want) {
		t.Fatalf("attempt order got=%v want=%v", attempts, want)
	}
}

func TestInvokeReturnsLastErrorWhenAllCandidatesFail(t *testing.T) {
	testlog.Start(t)
	c := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "port", Arity: 1, Priority: 2}, func(args []string) (int, error) {
				return ParsePort(args[0])
			}, func(*recorder, int) error { return nil }),
			On(Spec{Name: "port", Arity: 1, Priority: 1}, func(args []string) (int, error) {
				return ParseInt(args[0])
			}, func(*recorder, int) error { return nil }),
		).
		MustBuild()

	err := NewResolver(c, nil).Dispatch(&recorder{}, "port abc")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(pe.Msg, "abc is not a number") {
		t.Fatalf("expected last candidate error, got %q", pe.Msg)
	}
}

func TestInvokeDoesNotSwallowExit(t *testing.T) {
	testlog.Start(t)
	called := false
	res := Resolution[*recorder]{
		Candidates: []*Descriptor[*recorder]{
			ExitCommand[*recorder](),
			On(Spec{Name: "exit"}, Empty[Exit], func(*recorder, Exit) error {
				called = true
				return nil
			}),
		},
	}
	if err := Invoke(&recorder{}, res); !errors.Is(err, ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	if called {
		t.Fatalf("expected trial to stop at exit")
	}
}

func TestInvokeWithoutCandidates(t *testing.T) {
	testlog.Start(t)
	if err := Invoke(&recorder{}, Resolution[*recorder]{}); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

type countingTokenizer struct {
	inner    *tokenize.Whitespace
	tokens   int
	releases int
}

func (c *countingTokenizer) Tokenize(line string) []tokenize.Span {
	c.tokens++
	return c.inner.Tokenize(line)
}

func (c *countingTokenizer) Release() {
	c.releases++
	c.inner.Release()
}

func TestResolverReleasesTokenizerOnEveryPath(t *testing.T) {
	testlog.Start(t)
	c := NewBuilder[*recorder]().
		Add(
			On(Spec{Name: "ping", Flags: UniqueName}, Empty[ping], func(*recorder, ping) error { return nil }),
			OnLong(Spec{Name: "shout", Flags: UniqueName}, func(*recorder, string) error { return nil }),
			On(Spec{Name: "fail", Arity: 1}, func([]string) (int, error) {
				return 0, ParseErrorf("always")
			}, func(*recorder, int) error { return nil }),
		).
		MustBuild()
	tok := &countingTokenizer{inner: tokenize.NewWhitespace()}
	r := NewResolver(c, tok)

	lines := []string{"", "ping", "ping extra", "missing", "shout a b c", "fail x"}
	for _, line := range lines {
		_ = r.Dispatch(&recorder{}, line)
	}
	if tok.tokens != len(lines) || tok.releases != len(lines) {
		t.Fatalf("tokenize=%d release=%d want %d each", tok.tokens, tok.releases, len(lines))
	}
}
