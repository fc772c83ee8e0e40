package token

import "github.com/npillmayer/rebuild"

// Cursor is a position within a line of tokens. Cursors are values: copying a
// cursor yields an independent position on the same line, which is what
// speculative parsing relies on.
type Cursor struct {
	tokens []Token
	pos    int
	end    rebuild.Span // span reported at the end of the line
}

// NewCursor creates a cursor positioned at the first token of a line.
func NewCursor(line Line) Cursor {
	end := line.Span
	end.From = end.To
	return Cursor{tokens: line.Tokens, end: end}
}

// Pos returns the index of the current token within the line.
func (c Cursor) Pos() int {
	return c.pos
}

// AtEnd is a predicate: has the end of the line been reached?
func (c Cursor) AtEnd() bool {
	return c.pos >= len(c.tokens)
}

// Current returns the current token, or a token of kind Invalid at the end of
// the line.
func (c Cursor) Current() Token {
	return c.Peek(0)
}

// Peek returns the token n positions ahead of the current one.
func (c Cursor) Peek(n int) Token {
	if c.pos+n >= len(c.tokens) || c.pos+n < 0 {
		return Token{Kind: Invalid, Span: c.end}
	}
	return c.tokens[c.pos+n]
}

// Next advances the cursor by one token. Advancing beyond the end of the line
// is a no-op.
func (c *Cursor) Next() {
	if c.pos < len(c.tokens) {
		c.pos++
	}
}

// Is is a predicate: is the current token of kind k?
func (c Cursor) Is(k Kind) bool {
	return c.Current().Kind == k
}

// Rest returns the tokens from the current position to the end of the line.
func (c Cursor) Rest() []Token {
	if c.AtEnd() {
		return nil
	}
	return c.tokens[c.pos:]
}
