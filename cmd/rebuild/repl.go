package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/compiler"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/scope"
	"github.com/pterm/pterm"
)

// Intp is our interpreter object.
type Intp struct {
	unit      *compiler.Unit
	prompt    string
	lastInput string
	lastTree  *ast.Block
	pending   []string // lines of an open block
}

// NewIntp creates an interpreter. Output of programs goes to out.
func NewIntp(cfg Config, out io.Writer) (*Intp, error) {
	opts := []compiler.Option{compiler.WithOutput(out)}
	if cfg.StackSize > 0 {
		opts = append(opts, compiler.WithStackSize(cfg.StackSize))
	}
	if cfg.MaxDiagnostics > 0 {
		opts = append(opts, compiler.WithMaxDiagnostics(cfg.MaxDiagnostics))
	}
	u, err := compiler.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Intp{unit: u, prompt: cfg.Prompt}, nil
}

// loadFile executes a source file as a whole.
func (intp *Intp) loadFile(filename string) {
	if filename == "" {
		return
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		tracer().Errorf("Unable to open file: %s", filename)
		return
	}
	if err := intp.Eval(string(src)); err != nil {
		tracer().Errorf("Error in file %s: %v", filename, err)
	}
}

// REPL starts interactive mode.
func (intp *Intp) REPL() error {
	repl, err := readline.New(intp.prompt)
	if err != nil {
		return err
	}
	defer repl.Close()
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		quit, _ := intp.Line(line)
		if quit {
			break
		}
		if len(intp.pending) > 0 {
			repl.SetPrompt(intp.continuation())
		} else {
			repl.SetPrompt(intp.prompt)
		}
	}
	println("Good bye!")
	return nil
}

func (intp *Intp) continuation() string {
	if n := len(intp.prompt) - 4; n > 0 {
		return strings.Repeat(" ", n) + "... "
	}
	return "... "
}

// Line handles one line of interactive input. It returns true if the user
// asked to quit.
func (intp *Intp) Line(line string) (bool, error) {
	if len(intp.pending) > 0 {
		if strings.TrimSpace(line) != "" {
			intp.pending = append(intp.pending, line)
			return false, nil
		}
		src := strings.Join(intp.pending, "\n")
		intp.pending = nil
		return false, intp.Eval(src)
	}
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false, nil
	case strings.HasPrefix(trimmed, ":"):
		return intp.command(trimmed)
	case strings.HasSuffix(trimmed, ":"):
		intp.pending = []string{strings.TrimSuffix(trimmed, ":")}
		return false, nil
	}
	return false, intp.Eval(trimmed)
}

func (intp *Intp) command(cmd string) (bool, error) {
	switch cmd {
	case ":quit", ":q":
		return true, nil
	case ":tree":
		intp.printTree()
	case ":diag":
		intp.printDiagnostics()
	case ":globals":
		for _, line := range globalNames(intp.unit.Globals) {
			pterm.Println(line)
		}
	default:
		pterm.Error.Println("unknown command " + cmd)
	}
	return false, nil
}

// Eval compiles and executes source text, printing diagnostics.
func (intp *Intp) Eval(src string) error {
	intp.lastInput = src
	block, err := intp.unit.Compile(src)
	intp.lastTree = block
	if err != nil {
		intp.printDiagnostics()
		return err
	}
	if err := intp.unit.Run(block); err != nil {
		pterm.Error.Println(err.Error())
		return err
	}
	tracer().Debugf("executed %q", src)
	return nil
}

func (intp *Intp) printDiagnostics() {
	for _, d := range intp.unit.Diagnostics.Items() {
		if d.Severity >= diag.SevError {
			pterm.Error.Println(d.String())
		} else {
			pterm.Info.Println(d.String())
		}
		for _, n := range d.Notes {
			pterm.Println("    " + n.Span.From.String() + ": " + n.Msg)
		}
	}
}

func (intp *Intp) printTree() {
	if intp.lastTree == nil {
		pterm.Error.Println("no syntax tree available")
		return
	}
	pterm.Println(intp.lastInput)
	root := pterm.NewTreeFromLeveledList(leveledTree(intp.unit.Program, intp.lastTree))
	pterm.DefaultTree.WithRoot(root).Render()
}

// globalNames lists the names of a scope with the kind of their entries.
func globalNames(sc *scope.Scope) []string {
	var lines []string
	sc.Each(func(name string, entries []scope.Entry) {
		line := name + " :" + scope.KindOf(entries[0])
		if len(entries) > 1 {
			line += fmt.Sprintf(" (%d overloads)", len(entries))
		}
		lines = append(lines, line)
	})
	return lines
}

// leveledTree flattens a syntax tree into an indented list for display.
func leveledTree(prog *ast.Program, b *ast.Block) pterm.LeveledList {
	ll := pterm.LeveledList{}
	ast.Walk(b, func(n ast.Node, depth int) bool {
		ll = append(ll, pterm.LeveledListItem{
			Level: depth,
			Text:  prog.Describe(n),
		})
		return true
	})
	return ll
}

// scanLines is used for piped input, where readline is of no use.
func (intp *Intp) scanLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		quit, _ := intp.Line(scanner.Text())
		if quit {
			return nil
		}
	}
	if len(intp.pending) > 0 {
		intp.Line("")
	}
	return scanner.Err()
}
