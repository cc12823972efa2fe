package interp

import (
	"math/rand"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

// RandomEnv draws a uniformly random value (masked to its width) for
// every variable in vars, used by the simplification-correctness and
// JIT-agreement fuzz tests (spec.md §8 P4/P6).
func RandomEnv(a *ast.Arena, vars []ast.NodeId, rng *rand.Rand) Env {
	env := make(Env, len(vars))
	for _, v := range vars {
		w := a.Width(v)
		env[a.SymbolName(v)] = rng.Uint64() & bits.Mask(w)
	}
	return env
}
