/*
Package rebuild is the core of a small interpreted language with
compile-time execution.

A source text is tokenized and structured into nested block literals by the
lexer, then parsed block by block. Each function call is matched against the
overload set of its name by a call resolver, producing a resolved call. Calls
which are eligible for compile-time evaluation are handed to the execution
machine right away, and their results are spliced back into the parsed tree.
Everything else is executed later, on a stack arena with strict LIFO lifetimes.
Intrinsics (functions implemented in Go) may call back into the parser to
lazily parse block literals they own.

Package structure is as follows:

■ token: token kinds, lines, block literals and a cursor to consume them.

■ lexer: a lexmachine-based tokenizer plus the indentation pass.

■ diag: diagnostics and reporters.

■ ast: the program model (functions, parameters, variables, types,
literals), syntax nodes, and the one authoritative frame layout.

■ scope: chained symbol tables with overloadable function entries.

■ resolver: overload resolution for call sites.

■ parser: the expression parser driving the resolver.

■ arena: the stack allocator.

■ exec: the execution machine and the intrinsic ABI.

■ prelude: built-in types and intrinsics.

■ compiler: a compilation unit wiring it all together.

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package rebuild
