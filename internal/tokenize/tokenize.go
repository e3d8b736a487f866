// Package tokenize splits an operator line into whitespace-delimited spans.
//
// Spans index into the original line and stay valid only until Release is
// called; the span buffer is reused by the next Tokenize call.
package tokenize

import "unicode"

// Span is a half-open byte range [Start, End) over the tokenized line.
type Span struct {
	Start int
	End   int
}

// Text returns the span's text within line.
func (s Span) Text(line string) string {
	return line[s.Start:s.End]
}

// Tokenizer is the line splitting collaborator used by command resolution.
// Release must be called once after each Tokenize call, when the spans are
// no longer needed.
type Tokenizer interface {
	Tokenize(line string) []Span
	Release()
}

// Whitespace is the default Tokenizer. It is not safe for concurrent use.
type Whitespace struct {
	buf  []Span
	held bool
}

func NewWhitespace() *Whitespace {
	return &Whitespace{buf: make([]Span, 0, 8)}
}

func (w *Whitespace) Tokenize(line string) []Span {
	if w.held {
		panic("tokenize: Tokenize called before Release")
	}
	w.held = true
	spans := w.buf[:0]
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, Span{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(line)})
	}
	w.buf = spans
	return spans
}

func (w *Whitespace) Release() {
	clear(w.buf)
	w.buf = w.buf[:0]
	w.held = false
}

// Texts materializes spans as strings.
func Texts(line string, spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text(line)
	}
	return out
}
