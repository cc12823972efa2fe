// Package simplifyerr implements the two-tier error policy from
// SPEC_FULL.md §A: contract violations are fatal and panic with a typed
// *Fatal, while recoverable engine conditions (saturation resource
// caps) flow back as an ordinary return value (egraph.Stats.StoppedOn)
// rather than a panic. Grounded on the
// teacher's fmt.Errorf("...: %w", err) wrapping style in pkg/gpu/cuda.go.
package simplifyerr

import "fmt"

// Code identifies the class of contract violation.
type Code string

const (
	CodeWidthMismatch    Code = "width_mismatch"
	CodeJITUnsupportedTag Code = "jit_unsupported_tag"
	CodeTruthTableTooWide Code = "truth_table_too_wide"
	CodeUnboundVariable  Code = "unbound_variable"
)

// Fatal wraps a contract violation: a malformed tree, an out-of-range
// width, or anything else that indicates the caller broke an invariant
// rather than the engine hitting a resource limit. The only place that
// recover()s one is pkg/jit's CompileSafe, which turns it into an
// ordinary error; everywhere else it propagates as a panic.
type Fatal struct {
	Code Code
	Err  error
}

func (f *Fatal) Error() string { return fmt.Sprintf("%s: %v", f.Code, f.Err) }
func (f *Fatal) Unwrap() error { return f.Err }

// Raise panics with a *Fatal, the single call site every "this should
// be impossible" check in pkg/ast and pkg/jit funnels through.
func Raise(code Code, format string, args ...any) {
	panic(&Fatal{Code: code, Err: fmt.Errorf(format, args...)})
}

// Reason names why a recoverable Run stopped without producing a
// result it trusts to be optimal — a saturation cap rather than a
// simplification failure.
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonNodeCap      Reason = "node_cap"
	ReasonIterationCap Reason = "iteration_cap"
	ReasonTimeBudget   Reason = "time_budget"
)
