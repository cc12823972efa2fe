// Command mbasimplify is the thin CLI front end SPEC_FULL.md §A places
// out of scope for the core engine: it only calls into pkg/..., with no
// algorithmic logic of its own, mirroring cmd/z80opt/main.go's
// subcommand layout (enumerate/target/stoke there become
// simplify/classify/bench here).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/batch"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
	"github.com/mazeworks-security/simplifier/pkg/parser"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbasimplify",
		Short: "MBA expression simplifier — equality-saturation based rewriting",
	}

	rootCmd.AddCommand(newSimplifyCmd(), newClassifyCmd(), newBenchCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSimplifyCmd() *cobra.Command {
	var maxIterations int
	var maxNodes int
	var timeBudgetMs int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "simplify [expr...]",
		Short: "Simplify one or more S-expressions via equality saturation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := egraph.Config{
				MaxIterations: maxIterations,
				MaxNodes:      maxNodes,
				Verbose:       verbose,
			}
			if timeBudgetMs > 0 {
				cfg.TimeBudget = time.Duration(timeBudgetMs) * time.Millisecond
			}

			tasks := make([]batch.Task, len(args))
			for i, src := range args {
				a := ast.New()
				root, err := parser.ParseString(a, fmt.Sprintf("arg[%d]", i), src)
				if err != nil {
					return fmt.Errorf("parsing %q: %w", src, err)
				}
				tasks[i] = batch.Task{Name: src, Source: a, Root: root, Config: cfg}
			}

			pool := batch.New(0)
			outcomes := pool.Run(tasks, verbose)
			for _, o := range outcomes {
				fmt.Printf("%s\n  => %s  (%d iterations, stopped on %s)\n",
					o.Name, o.Result.String(o.Root), o.Stats.Iterations, o.Stats.StoppedOn)
			}
			completed, simplified := pool.Stats()
			fmt.Printf("\n%d/%d expressions strictly simplified\n", simplified, completed)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Saturation iteration cap (0 = default)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "E-graph node cap (0 = default)")
	cmd.Flags().IntVar(&timeBudgetMs, "time-budget-ms", 0, "Wall-clock budget in milliseconds (0 = unbounded)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose saturation progress")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [expr]",
		Short: "Report the AstClass and known-bits summary of an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := ast.New()
			root, err := parser.ParseString(a, "arg", args[0])
			if err != nil {
				return err
			}
			data := a.Data(root)
			fmt.Printf("expr:  %s\n", a.String(root))
			fmt.Printf("width: %d\n", a.Width(root))
			fmt.Printf("class: %s\n", data.Class)
			fmt.Printf("known: zeroes=%#x ones=%#x (%d/%d bits known)\n",
				data.KB.Zeroes, data.KB.Ones, data.KB.NumKnownBits(), a.Width(root))
			if c, ok := data.KB.AsConstant(); ok {
				fmt.Printf("constant-folds-to: %d\n", c)
			}
			return nil
		},
	}
	return cmd
}

func newBenchCmd() *cobra.Command {
	var workers int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bench [expr...]",
		Short: "Run a batch of expressions through the saturation pool and report timings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := make([]batch.Task, len(args))
			for i, src := range args {
				a := ast.New()
				root, err := parser.ParseString(a, fmt.Sprintf("arg[%d]", i), src)
				if err != nil {
					return fmt.Errorf("parsing %q: %w", src, err)
				}
				tasks[i] = batch.Task{Name: src, Source: a, Root: root}
			}

			pool := batch.New(workers)
			start := time.Now()
			outcomes := pool.Run(tasks, verbose)
			elapsed := time.Since(start)

			completed, simplified := pool.Stats()
			fmt.Printf("%d expressions, %d workers, %s elapsed\n", completed, pool.NumWorkers, elapsed)
			fmt.Printf("%d/%d strictly simplified\n", simplified, completed)
			for _, o := range outcomes {
				fmt.Printf("  %-40s class=%-20s cost=%d\n", o.Name, o.Result.Data(o.Root).Class, o.Result.Data(o.Root).Cost)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of workers (0 = NumCPU)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose progress reporting")
	return cmd
}
