package egraph

import (
	"fmt"
	"time"
)

// Config mirrors the teacher's search.Config: the knobs bounding one
// saturation run.
type Config struct {
	MaxNodes      int           // node cap; 0 means use the default
	MaxIterations int           // iteration cap; 0 means use the default
	TimeBudget    time.Duration // wall-clock budget, checked at iteration boundaries; 0 means unbounded
	BanThreshold  int           // backoff scheduler threshold; 0 means use the default
	Verbose       bool
}

const (
	defaultMaxNodes      = 10_000_000
	defaultMaxIterations = 5000
	defaultBanThreshold  = 1000
)

// Stats reports why a Saturate run stopped and how much it did.
type Stats struct {
	Iterations int
	StoppedOn  string // "saturated", "node_cap", "iteration_cap", "time_budget"
}

// Saturate repeatedly applies rules to g until no rule produces a new
// union, or a resource cap from cfg is hit. It mirrors search.Run's
// per-iteration progress reporting (printed when cfg.Verbose is set).
func Saturate(g *EGraph, rules []Rule, cfg Config) Stats {
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = defaultMaxNodes
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.BanThreshold <= 0 {
		cfg.BanThreshold = defaultBanThreshold
	}

	sched := NewBackoffScheduler(cfg.BanThreshold)
	start := time.Now()

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if g.Size() >= cfg.MaxNodes {
			return Stats{Iterations: iter, StoppedOn: "node_cap"}
		}
		if cfg.TimeBudget > 0 && time.Since(start) >= cfg.TimeBudget {
			return Stats{Iterations: iter, StoppedOn: "time_budget"}
		}

		type pending struct {
			root ClassId
			rhs  []ClassId
		}
		var todo []pending
		matchesThisIter := make(map[string]int)

		for _, r := range rules {
			if !sched.Allowed(r.Name, iter) {
				continue
			}
			count := 0
			for _, cls := range g.Classes() {
				for _, sub := range Match(g, r.LHS, cls) {
					if !r.passesGuards(g, sub) {
						continue
					}
					count++
					w := g.Class(cls).membersWidth()
					rhs := r.RHS.Apply(g, sub, w)
					if len(rhs) > 0 {
						todo = append(todo, pending{root: cls, rhs: rhs})
					}
				}
			}
			matchesThisIter[r.Name] = count
			sched.Report(r.Name, iter, count)
		}

		if len(todo) == 0 {
			return Stats{Iterations: iter, StoppedOn: "saturated"}
		}
		changed := false
		for _, p := range todo {
			for _, rc := range p.rhs {
				if g.Find(p.root) != g.Find(rc) {
					g.Union(p.root, rc)
					changed = true
				}
			}
		}
		if !changed {
			return Stats{Iterations: iter, StoppedOn: "saturated"}
		}
		g.Rebuild()

		if cfg.Verbose {
			fmt.Printf("  [saturate] iter=%d classes=%d unions=%d\n", iter, g.Size(), len(todo))
		}
	}
	return Stats{Iterations: cfg.MaxIterations, StoppedOn: "iteration_cap"}
}

func (c *EClass) membersWidth() uint8 {
	for _, n := range c.Nodes {
		return n.Width
	}
	return 0
}
