/*
Package lexer turns source text into the nested block literals consumed by the
parser.

Tokenizing is done by a DFA built with lexmachine. A second pass groups tokens
into lines and nests indented runs of lines into block literals: an indented
group becomes a token of kind Block appended to the line preceding it. A colon
ending that preceding line is dropped.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lexer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/tracing"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// tracer traces with key 'rebuild.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.lexer")
}

// Token IDs used within the DFA.
const (
	tokNewline = iota + 1
	tokIdent
	tokOperator
	tokNumber
	tokString
	tokOpen
	tokClose
	tokComma
	tokColon
	tokAssign
)

var kindForID = map[int]token.Kind{
	tokIdent:    token.Identifier,
	tokOperator: token.Operator,
	tokNumber:   token.Number,
	tokString:   token.String,
	tokOpen:     token.OpenBracket,
	tokClose:    token.CloseBracket,
	tokComma:    token.Comma,
	tokColon:    token.Colon,
	tokAssign:   token.Assign,
}

// The tokens representing literal lexemes
var separators = map[string]int{"(": tokOpen, ")": tokClose, ",": tokComma, ":": tokColon, "=": tokAssign}
var operators = []string{"+", "-", "*", "/", "%", "<", ">", "<=", ">=", "==", "!=", "!", "&", "|"}

// Lexer is a compiled tokenizer. It is safe for concurrent use; scanners
// created from it are not.
type Lexer struct {
	lexer *lexmachine.Lexer
}

var defaultLexer *Lexer
var defaultErr error
var compileOnce sync.Once // monitors one-time compilation of the DFA

// New returns the tokenizer. The DFA is compiled once, on first use.
func New() (*Lexer, error) {
	compileOnce.Do(func() {
		defaultLexer, defaultErr = compile()
	})
	return defaultLexer, defaultErr
}

func compile() (*Lexer, error) {
	lexer := lexmachine.NewLexer()
	lexer.Add([]byte(`#[^\n]*`), skip) // comments
	lexer.Add([]byte(`\n( |\t)*`), makeToken(tokNewline))
	lexer.Add([]byte(`( |\t|\r)+`), skip)
	lexer.Add([]byte(`\"[^"]*\"`), makeToken(tokString))
	lexer.Add([]byte(`[0-9]+(\.[0-9]+)?`), makeToken(tokNumber))
	lexer.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*(\.([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*)*`),
		makeToken(tokIdent))
	for lit, id := range separators {
		lexer.Add([]byte(escape(lit)), makeToken(id))
	}
	for _, op := range operators {
		lexer.Add([]byte(escape(op)), makeToken(tokOperator))
	}
	if err := lexer.Compile(); err != nil {
		tracer().Errorf("error compiling DFA: %v", err)
		return nil, err
	}
	return &Lexer{lexer: lexer}, nil
}

func escape(lit string) string {
	return "\\" + strings.Join(strings.Split(lit, ""), "\\")
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// --- Scanner ---------------------------------------------------------------

// Scanner scans a single input text.
type Scanner struct {
	scanner *lexmachine.Scanner
	Error   func(error)
}

// item is a scanned token before line structuring.
type item struct {
	id     int
	lexeme string
	span   rebuild.Span
}

// Scanner creates a scanner for a given input.
func (l *Lexer) Scanner(input string) (*Scanner, error) {
	// a leading newline makes every line, including the first one, start
	// with an indentation token
	s, err := l.lexer.Scanner([]byte("\n" + input))
	if err != nil {
		return nil, err
	}
	return &Scanner{scanner: s, Error: logError}, nil
}

// SetErrorHandler sets an error handler for the scanner.
func (s *Scanner) SetErrorHandler(h func(error)) {
	if h == nil {
		s.Error = logError
		return
	}
	s.Error = h
}

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// next returns the next scanned item, and false at the end of input.
func (s *Scanner) next() (item, bool) {
	tok, err, eof := s.scanner.Next()
	for err != nil {
		s.Error(err)
		if ui, is := err.(*machines.UnconsumedInput); is {
			s.scanner.TC = ui.FailTC
		}
		tok, err, eof = s.scanner.Next()
	}
	if eof {
		return item{}, false
	}
	t := tok.(*lexmachine.Token)
	return item{
		id:     t.Type,
		lexeme: string(t.Lexeme),
		span: rebuild.Span{ // input has been prefixed by one newline
			From: rebuild.Position{Line: t.StartLine - 1, Column: t.StartColumn},
			To:   rebuild.Position{Line: t.EndLine - 1, Column: t.EndColumn + 1},
		},
	}, true
}

// --- Parsing into block literals -------------------------------------------

// Parse tokenizes input and structures it into a block literal. Scanner errors
// do not stop tokenizing; they are collected and returned together with the
// (partial) result.
func (l *Lexer) Parse(input string) (*token.BlockLiteral, error) {
	s, err := l.Scanner(input)
	if err != nil {
		return nil, err
	}
	var errs []error
	s.SetErrorHandler(func(e error) {
		errs = append(errs, e)
	})
	lines := s.lines()
	block, err := structure(lines)
	if err != nil {
		errs = append(errs, err)
	}
	tracer().Debugf("scanned %d lines", len(lines))
	return block, errors.Join(errs...)
}

// Parse is a shortcut for parsing input with the default lexer.
func Parse(input string) (*token.BlockLiteral, error) {
	l, err := New()
	if err != nil {
		return nil, err
	}
	return l.Parse(input)
}

// rawLine is a line of tokens with its indentation, before nesting.
type rawLine struct {
	indent int
	line   token.Line
}

func (s *Scanner) lines() []rawLine {
	var lines []rawLine
	var current *rawLine
	for {
		it, ok := s.next()
		if !ok {
			break
		}
		if it.id == tokNewline {
			lines = append(lines, rawLine{indent: len(it.lexeme) - 1})
			current = &lines[len(lines)-1]
			continue
		}
		if current == nil {
			lines = append(lines, rawLine{})
			current = &lines[0]
		}
		tok := token.Token{
			Kind: kindForID[it.id],
			Text: it.lexeme,
			Span: it.span,
		}
		if tok.Kind == token.String {
			tok.Text = strings.Trim(it.lexeme, `"`)
		}
		current.line.Tokens = append(current.line.Tokens, tok)
		current.line.Span = current.line.Span.Extend(it.span)
	}
	nonEmpty := lines[:0]
	for _, l := range lines {
		if len(l.line.Tokens) > 0 {
			nonEmpty = append(nonEmpty, l)
		}
	}
	return nonEmpty
}

// ErrIndentation is returned for lines dedenting below the indentation of the
// first line.
var ErrIndentation = errors.New("inconsistent indentation")

func structure(lines []rawLine) (*token.BlockLiteral, error) {
	if len(lines) == 0 {
		return &token.BlockLiteral{}, nil
	}
	block, next := nest(lines, 0, lines[0].indent)
	if next < len(lines) {
		return block, fmt.Errorf("%w: line %s", ErrIndentation, lines[next].line.Span.From)
	}
	return block, nil
}

// nest collects lines with a given indentation into a block literal, starting
// at line i. Deeper indented runs are nested recursively. It returns the block
// and the index of the first line not consumed.
func nest(lines []rawLine, i int, indent int) (*token.BlockLiteral, int) {
	block := &token.BlockLiteral{}
	for i < len(lines) {
		l := lines[i]
		if l.indent < indent {
			break
		}
		if l.indent == indent || len(block.Lines) == 0 {
			block.Lines = append(block.Lines, l.line)
			block.Span = block.Span.Extend(l.line.Span)
			i++
			continue
		}
		child, next := nest(lines, i, l.indent)
		prev := &block.Lines[len(block.Lines)-1]
		if n := len(prev.Tokens); n > 0 && prev.Tokens[n-1].Kind == token.Colon {
			prev.Tokens = prev.Tokens[:n-1]
		}
		prev.Tokens = append(prev.Tokens, token.Token{
			Kind:  token.Block,
			Text:  "block",
			Span:  child.Span,
			Block: child,
		})
		prev.Span = prev.Span.Extend(child.Span)
		block.Span = block.Span.Extend(child.Span)
		i = next
	}
	return block, i
}
