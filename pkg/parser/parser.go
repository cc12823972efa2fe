// Package parser implements the S-expression surface syntax: a
// participle/v2 grammar over a hand-written stateful lexer, and
// fatih/color caret-style diagnostics on a rejected parse. Grounded on
// kanso-lang-kanso/grammar's ParseFile/reportParseError: same
// lexer-then-participle.Build shape, same "print the offending source
// line with a caret under the column" error format.
package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"github.com/mazeworks-security/simplifier/pkg/ast"
)

var exprParser = participle.MustBuild[Program](
	participle.Lexer(ExprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseString parses src as one expr and builds it into a. A rejected
// parse returns an error and leaves a untouched beyond whatever
// interning happened before the failure was detected — no partial node
// is ever returned to the caller.
func ParseString(a *ast.Arena, name, src string) (ast.NodeId, error) {
	prog, err := exprParser.ParseString(name, src)
	if err != nil {
		reportParseError(src, err)
		return ast.InvalidID, err
	}
	return Build(a, prog)
}

// reportParseError prints a caret-style diagnostic for a rejected
// parse (ported from kanso-lang-kanso/grammar/parser.go's
// reportParseError).
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"

	color.Red("Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
