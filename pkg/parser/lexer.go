package parser

import "github.com/alecthomas/participle/v2/lexer"

// ExprLexer tokenizes the S-expression surface syntax. Built the way
// kanso-lang-kanso/grammar/lexer.go builds KansoLexer: a single
// stateful rule set, ordered so the longer/compound tokens (`**`, `>>`,
// `>=s`) are tried before the single-character operators they'd
// otherwise be swallowed by.
var ExprLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Operator", `\*\*|>>|[+*&|^~]`, nil},
		{"Pred", `==|!=|>=s|<=s|>s|<s|>=|<=|>|<`, nil},
		{"Width", `i[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Punctuation", `[():]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
