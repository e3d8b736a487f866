package command

import (
	"errors"
	"strings"
	"unicode"

	"github.com/danmuck/peerline/internal/tokenize"
)

// Outcome classifies how a line was resolved.
type Outcome int

const (
	Matched Outcome = iota
	Unmatched
	WrongArgumentCount
)

// Resolution is the ordered candidate list for one line plus the positional
// payload every candidate is tried with. Fallback resolutions carry their
// payload in the single candidate and no args.
type Resolution[H any] struct {
	Candidates []*Descriptor[H]
	Args       []string
	Outcome    Outcome
}

func fallback[H any](d *Descriptor[H], outcome Outcome) Resolution[H] {
	return Resolution[H]{Candidates: []*Descriptor[H]{d}, Outcome: outcome}
}

// Resolver turns operator lines into resolutions against one catalog. It is
// not safe for concurrent use because the tokenizer buffer is shared.
type Resolver[H any] struct {
	catalog   *Catalog[H]
	tokenizer tokenize.Tokenizer
}

// NewResolver uses the whitespace tokenizer when tok is nil.
func NewResolver[H any](catalog *Catalog[H], tok tokenize.Tokenizer) *Resolver[H] {
	if tok == nil {
		tok = tokenize.NewWhitespace()
	}
	return &Resolver[H]{catalog: catalog, tokenizer: tok}
}

func (r *Resolver[H]) Catalog() *Catalog[H] {
	return r.catalog
}

// Resolve returns ok=false for lines without tokens.
func (r *Resolver[H]) Resolve(line string) (Resolution[H], bool) {
	spans := r.tokenizer.Tokenize(line)
	defer r.tokenizer.Release()

	if len(spans) == 0 {
		return Resolution[H]{}, false
	}
	name := spans[0].Text(line)
	e, ok := r.catalog.lookup(name)
	if !ok {
		return fallback(r.catalog.notFoundFor(strings.TrimSpace(line)), Unmatched), true
	}
	if set := e.long(); set != nil {
		rest := strings.TrimLeftFunc(line[spans[0].End:], unicode.IsSpace)
		return Resolution[H]{Candidates: set, Args: []string{rest}}, true
	}

	argc := len(spans) - 1
	set := e.withArity(argc)
	if set == nil {
		return fallback(r.catalog.badArgumentCountFor(argc), WrongArgumentCount), true
	}
	return Resolution[H]{Candidates: set, Args: tokenize.Texts(line, spans[1:])}, true
}

// Dispatch resolves line and invokes the result on h. Blank lines are a no-op.
func (r *Resolver[H]) Dispatch(h H, line string) error {
	res, ok := r.Resolve(line)
	if !ok {
		return nil
	}
	return Invoke(h, res)
}

// Invoke tries each candidate in order until one succeeds. A failing
// candidate, whether its payload construction or its handler failed, hands
// over to the next one; when all fail the last error is returned. ErrExit
// stops the trial immediately.
func Invoke[H any](h H, res Resolution[H]) error {
	last := ErrNoCandidates
	for _, d := range res.Candidates {
		err := d.Invoke(h, res.Args)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrExit) {
			return err
		}
		last = err
	}
	return last
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
