/*
Package diag defines diagnostics and the reporters delivering them.

Components never format diagnostic text for display; they emit structured
Diagnostic values through a Reporter. Rendering is left to clients.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package diag

import (
	"fmt"
	"sort"

	"github.com/npillmayer/rebuild"
)

// Code identifies a kind of diagnostic by a namespace and a number.
type Code struct {
	Namespace string
	Number    int
}

func (c Code) String() string {
	return fmt.Sprintf("%s.%d", c.Namespace, c.Number)
}

// Diagnostic codes.
var (
	LexerBadInput = Code{"lexer", 1}

	ResolverBracketNeverCloses = Code{"resolver", 1} // input exhausted before ')'
	ResolverExpectedBracket    = Code{"resolver", 2} // other token where ')' expected

	ParserUnknownIdentifier = Code{"parser", 1}
	ParserNoOverload        = Code{"parser", 2}
	ParserAmbiguousOverload = Code{"parser", 3}
	ParserUnexpectedToken   = Code{"parser", 4}
	ParserDuplicateName     = Code{"parser", 5}
	ParserExpectedType      = Code{"parser", 6}
	ParserNotAModule        = Code{"parser", 7}
	ParserTypeMismatch      = Code{"parser", 8}
	ParserCompileTimeFailed = Code{"parser", 9}
)

// Severity of a diagnostic.
type Severity uint8

// Severities, ordered by increasing weight.
const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	}
	return "error"
}

// Note is a secondary source marker with an explanation.
type Note struct {
	Span rebuild.Span
	Msg  string
}

// Diagnostic is a structured report about a problem in the input.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  rebuild.Span
	Notes    []Note
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", d.Primary.From, d.Severity, d.Code, d.Message)
}

// --- Bag -------------------------------------------------------------------

// Bag collects diagnostics, up to a limit.
type Bag struct {
	items []Diagnostic
	max   int
}

// NewBag creates a bag holding at most max diagnostics.
func NewBag(max int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, max), max: max}
}

// Add adds a diagnostic. It returns false if the bag is full.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors is true if the bag holds at least one diagnostic of severity
// SevError.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics collected.
func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the collected diagnostics. Clients must not modify the slice.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Reset empties the bag.
func (b *Bag) Reset() {
	b.items = b.items[:0]
}

// Sort orders diagnostics by position, then by severity (descending).
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.From != dj.Primary.From {
			return di.Primary.From.Before(dj.Primary.From)
		}
		return di.Severity > dj.Severity
	})
}
