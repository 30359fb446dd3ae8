package compiler

import "github.com/mna/saffron/lang/ast"

// lowerFn is supplied by compile.go; adjust.go only orchestrates count
// bookkeeping, it never lowers an expression itself, to avoid an import
// cycle between the two concerns living in the same package.
type lowerFn func(e ast.Expr)

// evaluateSingle evaluates e for exactly one resulting value. lower
// (lowerExpr in compile.go) already truncates multi-result expressions
// to one result on its own, so this is just a readability alias used at
// the call sites that mirror the adjustment-protocol description.
func evaluateSingle(p *protoState, lower lowerFn, e ast.Expr) {
	lower(e)
}

// lowerMultiResult is implemented in compile.go; it lowers a call,
// method call, or vararg expression requesting resultCount results
// using the n+1/0=all convention (0 means "all results").
var lowerMultiResultFn func(p *protoState, lower lowerFn, e ast.Expr, resultCount int)

func lowerMultiResult(p *protoState, lower lowerFn, e ast.Expr, resultCount int) {
	lowerMultiResultFn(p, lower, e, resultCount)
}

// adjustStatic evaluates exprs onto the stack so that exactly count
// values are left, left to right, padding with nil or truncating with
// pop as needed. count must be > 0; list destructurings with a known
// target count (local declarations, assignments, generic for loop
// headers) all go through this one routine.
func adjustStatic(p *protoState, lower lowerFn, count int, exprs []ast.Expr) {
	if count == 0 {
		internal("adjustStatic: count must be > 0")
	}
	diff := count - len(exprs)

	if diff > 0 {
		if len(exprs) == 0 {
			for i := 0; i < diff; i++ {
				p.addOpcode(Instr{Op: PushNil})
			}
			return
		}
		last := exprs[len(exprs)-1]
		head := exprs[:len(exprs)-1]
		for _, e := range head {
			evaluateSingle(p, lower, e)
		}
		if ast.IsMultiResult(last) {
			// The multi-result expression's own span covers the padding:
			// diff+1 actual results (n+1-encoded as 2+diff).
			lowerMultiResult(p, lower, last, 2+diff)
		} else {
			evaluateSingle(p, lower, last)
			for i := 0; i < diff; i++ {
				p.addOpcode(Instr{Op: PushNil})
			}
		}
		return
	}

	// diff <= 0: len(exprs) >= count; evaluate everything, then pop the
	// surplus.
	head := exprs[:len(exprs)-1]
	last := exprs[len(exprs)-1]
	for _, e := range head {
		evaluateSingle(p, lower, e)
	}
	if ast.IsMultiResult(last) {
		// Truncation never needs more than the last expr's first result:
		// surplus values, wherever they came from, are discarded below by
		// position, not by which expr produced them.
		lowerMultiResult(p, lower, last, 2)
	} else {
		evaluateSingle(p, lower, last)
	}
	for i := 0; i < -diff; i++ {
		p.addOpcode(Instr{Op: Pop})
	}
}
