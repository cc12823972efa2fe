package egraph

import "github.com/mazeworks-security/simplifier/pkg/ast"

// FromAST inserts the subtree rooted at id into g, memoizing by
// NodeId so shared subtrees are inserted once (the hash-consed Arena
// already guarantees structural sharing; this just carries it over).
func FromAST(g *EGraph, a *ast.Arena, id ast.NodeId, memo map[ast.NodeId]ClassId) ClassId {
	if c, ok := memo[id]; ok {
		return c
	}
	n := a.Node(id)
	var en ENode
	en.Tag = n.Tag
	en.Width = n.Width
	en.Payload = n.Payload
	en.NumKids = n.NumKids
	for i := 0; i < int(n.NumKids); i++ {
		en.Kids[i] = FromAST(g, a, n.Kids[i], memo)
	}
	c := g.Add(en)
	memo[id] = c
	return c
}
