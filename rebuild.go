package rebuild

import "fmt"

// --- Positions and spans ---------------------------------------------------

// Position is a line/column location within a source text. Lines and columns
// start at 1; the zero value denotes "no position".
type Position struct {
	Line   int
	Column int
}

// IsNull is a predicate: has this position not been set?
func (p Position) IsNull() bool {
	return p.Line == 0
}

// Before is true if p is located strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a small type for capturing the extent of a run of input tokens. It
// denotes a start position and the position just behind the end.
//
// Diagnostics use spans as source markers; tokens carry the span they have
// been scanned from.
type Span struct {
	From Position
	To   Position
}

// IsNull is a predicate: is this the empty span?
func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend returns the smallest span covering both s and other.
func (s Span) Extend(other Span) Span {
	if s.IsNull() {
		return other
	}
	if other.IsNull() {
		return s
	}
	if other.From.Before(s.From) {
		s.From = other.From
	}
	if s.To.Before(other.To) {
		s.To = other.To
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%s…%s)", s.From, s.To)
}
