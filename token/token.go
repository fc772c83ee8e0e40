/*
Package token defines the tokens handed from the block-structuring pass to the
parser.

Input is a tree of nested block literals. Each block literal is a sequence of
lines, each line a sequence of pre-classified tokens. A token of kind Block
carries a nested block literal. Parsers consume lines positionally through a
Cursor.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package token

import (
	"fmt"
	"strings"

	"github.com/npillmayer/rebuild"
)

// Kind is a category type for tokens.
type Kind int8

// Token categories.
const (
	Invalid      Kind = iota // returned by cursors at the end of a line
	Identifier               // print, x, Module.name
	Operator                 // +, -, *, …
	Number                   // 42, 3.14
	String                   // "text"
	OpenBracket              // (
	CloseBracket             // )
	Comma                    // ,
	Colon                    // :
	Assign                   // =
	Block                    // nested block literal
)

var kindNames = [...]string{
	Invalid:      "invalid",
	Identifier:   "identifier",
	Operator:     "operator",
	Number:       "number",
	String:       "string",
	OpenBracket:  "'('",
	CloseBracket: "')'",
	Comma:        "','",
	Colon:        "':'",
	Assign:       "'='",
	Block:        "block",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is an input token. For string tokens, Text holds the unquoted content.
type Token struct {
	Kind  Kind
	Text  string
	Span  rebuild.Span
	Block *BlockLiteral // set for tokens of kind Block
}

// IsA is a predicate: is the token of kind k, and, if text is non-empty, does it
// have this text?
func (t Token) IsA(k Kind, text string) bool {
	return t.Kind == k && (text == "" || t.Text == text)
}

func (t Token) String() string {
	switch t.Kind {
	case Block:
		return fmt.Sprintf("<block %d lines>", len(t.Block.Lines))
	case String:
		return fmt.Sprintf("%q", t.Text)
	case Invalid:
		return "<end of line>"
	}
	return t.Text
}

// Line is a sequence of tokens.
type Line struct {
	Tokens []Token
	Span   rebuild.Span
}

func (l Line) String() string {
	var b strings.Builder
	for i, t := range l.Tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// BlockLiteral is a sequence of lines, forming a block of code which has not
// yet been parsed.
type BlockLiteral struct {
	Lines []Line
	Span  rebuild.Span
}
