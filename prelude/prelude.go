/*
Package prelude declares the built-in types and intrinsic functions.

Literal types (NumLit, StrLit, BlockLit, Ident, Type, Tuple) are handles to
immutable compile-time data. Their argument parsers make the resolver take
block literals, identifiers, type expressions and value tuples verbatim.
Machine types (i64, i32, u8, bool) hold run-time values.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package prelude

import (
	"io"

	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.prelude'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.prelude")
}

// Types holds the built-in types.
type Types struct {
	NumLit, StrLit, BlockLit, Ident, Type, Tuple ast.TypeID
	I64, I32, U8, Bool                           ast.TypeID
}

// Declare declares the built-in types and intrinsics in sc. Output of print
// goes to out.
func Declare(prog *ast.Program, sc *scope.Scope, out io.Writer) *Types {
	t := &Types{}
	decl := func(name string, size uint32, parser ast.ParserKind) ast.TypeID {
		id := prog.DeclareType(ast.Type{Name: name, Size: size, Parser: parser})
		if _, err := sc.Declare(scope.Type{Name: name, ID: id}); err != nil {
			panic(err)
		}
		return id
	}
	t.NumLit = decl("NumLit", ast.PointerSize, ast.ParseExpression)
	t.StrLit = decl("StrLit", ast.PointerSize, ast.ParseExpression)
	t.BlockLit = decl("BlockLit", ast.PointerSize, ast.ParseSingleToken)
	t.Ident = decl("Ident", ast.PointerSize, ast.ParseIdentifier)
	t.Type = decl("Type", ast.PointerSize, ast.ParseTypeExpression)
	t.Tuple = decl("Tuple", ast.PointerSize, ast.ParseValueTuple)
	t.I64 = decl("i64", 8, ast.ParseExpression)
	t.I32 = decl("i32", 4, ast.ParseExpression)
	t.U8 = decl("u8", 1, ast.ParseExpression)
	t.Bool = decl("bool", 1, ast.ParseExpression)
	prog.SetLiteralType(ast.NumberLit, t.NumLit)
	prog.SetLiteralType(ast.StringLit, t.StrLit)
	prog.SetLiteralType(ast.BlockLit, t.BlockLit)
	prog.SetLiteralType(ast.IdentifierLit, t.Ident)
	prog.SetLiteralType(ast.TypeLit, t.Type)
	prog.SetLiteralType(ast.TupleLit, t.Tuple)
	if out == nil {
		out = io.Discard
	}
	declareIntrinsics(prog, sc, t, out)
	tracer().Debugf("prelude declared %d names", sc.Size())
	return t
}

func right(name string, t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: name, Side: ast.SideRight, Type: ast.Instance{Type: t}}
}

func left(name string, t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: name, Side: ast.SideLeft, Type: ast.Instance{Type: t}}
}

func result(t ast.TypeID) ast.Parameter {
	return ast.Parameter{Name: "result", Side: ast.SideResult, Type: ast.Pointer{Elem: ast.Instance{Type: t}}}
}
