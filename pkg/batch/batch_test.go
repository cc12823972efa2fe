package batch

import (
	"testing"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
	"github.com/stretchr/testify/require"
)

func TestRunSimplifiesIndependentExpressions(t *testing.T) {
	var tasks []Task
	for i := 0; i < 4; i++ {
		a := ast.New()
		x := a.Sym("x", 8)
		root := a.Neg(a.Neg(x)) // double negation, always simplifiable to x
		tasks = append(tasks, Task{
			Name:   "task",
			Source: a,
			Root:   root,
			Config: egraph.Config{MaxIterations: 32},
		})
	}

	pool := New(2)
	outcomes := pool.Run(tasks, false)
	require.Len(t, outcomes, 4)
	for _, o := range outcomes {
		require.Equal(t, "x:i8", o.Result.String(o.Root))
	}

	completed, simplified := pool.Stats()
	require.Equal(t, int64(4), completed)
	require.Equal(t, int64(4), simplified)
}

func TestRunPreservesOrder(t *testing.T) {
	var tasks []Task
	names := []string{"a", "b", "c"}
	for _, name := range names {
		a := ast.New()
		x := a.Sym(name, 8)
		tasks = append(tasks, Task{Name: name, Source: a, Root: x, Config: egraph.Config{MaxIterations: 4}})
	}
	pool := New(3)
	outcomes := pool.Run(tasks, false)
	for i, o := range outcomes {
		require.Equal(t, names[i], o.Name)
	}
}
