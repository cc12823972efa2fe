package parser

// Program is the top-level parse result: the grammar has a single expr
// as its root (pretty-printing/parsing round-trips one expression at a
// time).
type Program struct {
	Root *Expr `@@`
}

// Expr is either a parenthesized call or a leaf (constant/symbol).
type Expr struct {
	Call *Call `"(" @@ ")"`
	Leaf *Leaf `| @@`
}

// Call is `(op expr...)`; Pred is only populated when Op is "icmp",
// immediately followed by one of the ten comparison predicates.
type Call struct {
	Op   string  `@Operator | @Ident`
	Pred *string `( @Pred )?`
	Args []*Expr `@@+`
}

// Leaf is `<int> ":" i<width>` or `<name> ":" i<width>`.
type Leaf struct {
	Int   *int64  `( @Integer`
	Name  *string `| @Ident )`
	Width string  `":" @Width`
}
