package ast

import (
	"fmt"
	"strings"
)

// Walk calls f for n and all nodes nested below it, in depth-first order,
// passing the nesting depth. Walking stops descending below a node if f
// returns false.
func Walk(n Node, f func(n Node, depth int) bool) {
	walk(n, 0, f)
}

func walk(n Node, depth int, f func(Node, int) bool) {
	if n == nil || !f(n, depth) {
		return
	}
	switch node := n.(type) {
	case *Block:
		for _, sub := range node.Nodes {
			walk(sub, depth+1, f)
		}
	case *Call:
		for _, a := range node.Arguments {
			for _, v := range a.Values {
				walk(v, depth+1, f)
			}
		}
	case *VariableInit:
		walk(node.Value, depth+1, f)
	}
}

// Describe returns a one-line description of a node, without its children.
func (p *Program) Describe(n Node) string {
	switch node := n.(type) {
	case *Block:
		return fmt.Sprintf("block (%d nodes, %d locals)", len(node.Nodes), len(node.Locals))
	case *Call:
		return "call " + p.Signature(node.Function)
	case *IntrinsicCall:
		return "intrinsic " + p.functionName(node.Function)
	case *ParameterRef:
		if par := p.Parameter(node.Parameter); par != nil {
			return "param " + par.Name
		}
	case *VariableRef:
		if v := p.Variable(node.Variable); v != nil {
			return "var " + v.Name
		}
	case *LiteralRef:
		if lit := p.Literal(node.Literal); lit != nil {
			return p.describeLiteral(lit)
		}
	case *VariableInit:
		if v := p.Variable(node.Variable); v != nil {
			return "init " + v.Name
		}
	}
	return "<invalid>"
}

func (p *Program) describeLiteral(lit *Literal) string {
	switch lit.Kind {
	case StringLit:
		return fmt.Sprintf("literal %q", lit.Text)
	case BlockLit:
		return fmt.Sprintf("literal block (%d lines)", len(lit.Block.Lines))
	case TypeLit:
		return "literal type " + p.TypeName(lit.Type)
	case TupleLit:
		return fmt.Sprintf("literal tuple (%d entries)", len(lit.Tuple))
	}
	return fmt.Sprintf("literal %s %s", lit.Kind, lit.Text)
}

func (p *Program) functionName(id FunctionID) string {
	if fn := p.Function(id); fn != nil {
		return fn.Name
	}
	return "<invalid>"
}

// Signature returns a readable signature of a function, e.g.
// "(a :i64) add (b :i64) -> *i64".
func (p *Program) Signature(id FunctionID) string {
	fn := p.Function(id)
	if fn == nil {
		return "<invalid>"
	}
	var b strings.Builder
	for _, pid := range p.ParametersOf(id, SideLeft) {
		p.writeParameter(&b, pid)
		b.WriteByte(' ')
	}
	b.WriteString(fn.Name)
	for _, pid := range p.ParametersOf(id, SideRight) {
		b.WriteByte(' ')
		p.writeParameter(&b, pid)
	}
	if res, ok := p.ResultParameter(id); ok {
		b.WriteString(" -> ")
		b.WriteString(p.TypeName(p.Parameter(res).Type))
	}
	return b.String()
}

func (p *Program) writeParameter(b *strings.Builder, pid ParameterID) {
	par := p.Parameter(pid)
	b.WriteByte('(')
	b.WriteString(par.Name)
	if par.Has(Splatted) {
		b.WriteString("...")
	}
	if par.Type != nil {
		if _, auto := par.Type.(Auto); !auto {
			b.WriteString(" :")
			b.WriteString(p.TypeName(par.Type))
		}
	}
	b.WriteByte(')')
}

// Dump renders a node tree as indented text, one node per line.
func (p *Program) Dump(n Node) string {
	var b strings.Builder
	Walk(n, func(node Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(p.Describe(node))
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
