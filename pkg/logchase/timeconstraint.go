package logchase

import (
	"fmt"
	"math"
	"strconv"
)

// TimeOp is the comparison a TimeConstraint applies.
type TimeOp int

const (
	// Before requires the candidate line to be earlier than reference+delta.
	Before TimeOp = iota
	// After requires the candidate line to be later than reference+delta.
	After
)

func (op TimeOp) String() string {
	switch op {
	case Before:
		return "<"
	case After:
		return ">"
	default:
		return fmt.Sprintf("TimeOp(%d)", int(op))
	}
}

// TimeConstraint relates the timestamp of a candidate line to the timestamp
// recorded by an earlier match step.
type TimeConstraint struct {
	Ref     MatchID
	Op      TimeOp
	DeltaMs int64

	expr  string
	owner *Builder
}

// ParseTimeConstraint parses expr of the form <op><integer><unit>, for
// example "<20s". Only the seconds unit is supported.
//
// Constraints passed to a Builder must come from Handle.Within, which binds
// them to that builder.
func ParseTimeConstraint(ref MatchID, expr string) (TimeConstraint, error) {
	if len(expr) < 3 {
		return TimeConstraint{}, &TimeConstraintError{Expr: expr, Err: ErrMalformedTimeConstraint}
	}

	var op TimeOp
	switch expr[0] {
	case '<':
		op = Before
	case '>':
		op = After
	default:
		return TimeConstraint{}, &TimeConstraintError{Expr: expr, Err: ErrMalformedTimeConstraint}
	}

	end := 1
	for end < len(expr) && expr[end] >= '0' && expr[end] <= '9' {
		end++
	}
	if end == 1 || end == len(expr) {
		return TimeConstraint{}, &TimeConstraintError{Expr: expr, Err: ErrMalformedTimeConstraint}
	}
	if unit := expr[end:]; unit != "s" {
		return TimeConstraint{}, &TimeConstraintError{
			Expr: expr,
			Err:  fmt.Errorf("%w: %q", ErrUnsupportedTimeUnit, unit),
		}
	}

	seconds, err := strconv.ParseInt(expr[1:end], 10, 64)
	if err == nil && seconds > math.MaxInt64/1000 {
		err = strconv.ErrRange
	}
	if err != nil {
		return TimeConstraint{}, &TimeConstraintError{
			Expr: expr,
			Err:  fmt.Errorf("%w: %v", ErrMalformedTimeConstraint, err),
		}
	}

	return TimeConstraint{Ref: ref, Op: op, DeltaMs: seconds * 1000, expr: expr}, nil
}

// String returns the expression the constraint was parsed from.
func (tc TimeConstraint) String() string {
	if tc.expr != "" {
		return tc.expr
	}
	return fmt.Sprintf("%s%ds", tc.Op, tc.DeltaMs/1000)
}

// Allows reports whether a line stamped candidate satisfies the constraint
// given a reference timestamp. The boundary itself never satisfies it.
func (tc TimeConstraint) Allows(reference, candidate int64) bool {
	limit := reference + tc.DeltaMs
	if limit < reference {
		// DeltaMs is never negative, so this is overflow.
		limit = math.MaxInt64
	}
	if tc.Op == Before {
		return candidate < limit
	}
	return candidate > limit
}

// satisfied evaluates the constraint against a path's timestamps. A missing
// reference or an unparseable timestamp on either side never satisfies it.
func (tc TimeConstraint) satisfied(times map[MatchID]stamp, candidate stamp) bool {
	ref, ok := times[tc.Ref]
	if !ok || !ref.valid || !candidate.valid {
		return false
	}
	return tc.Allows(ref.ms, candidate.ms)
}
