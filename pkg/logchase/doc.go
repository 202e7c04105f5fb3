// Package logchase finds multi-line occurrences in log files.
//
// A pattern is built as a sequence of steps, each describing how the next
// lines of the log must look:
//   - MatchAllRepeat skips any number of lines
//   - Match requires one line matching a regular expression
//   - UnmatchRepeat skips lines that do not match an expression
//
// Later steps may reuse text captured by earlier ones through the {}
// placeholder, and may require that their line was written within (or
// after) some seconds of an earlier one.
//
// # Basic Usage
//
//	b := logchase.NewBuilder("slow login")
//	_ = b.MatchAllRepeat(nil)
//	login, _ := b.Match(`login user=(\w+)`, nil)
//	_ = b.MatchAllRepeat(nil)
//	within, _ := login.Within(">30s")
//	_, _ = b.Match(`session ready user={}`, within, login.MustAt(0))
//	g, err := b.Graph()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lines, err := logchase.OpenFile("app.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := logchase.Match(ctx, lines, g)
//
// Builder steps report errors immediately; the first one is also returned
// by Graph, so a sequence of steps can be checked once at the end.
//
// # Matching
//
// The matcher explores every way the lines can be assigned to steps,
// depth first, and stops at the first complete assignment. Skips are not
// greedy. The search is exponential in the worst case; WithMaxSteps bounds
// it and reports ErrSearchBudgetExceeded rather than a false result.
//
// Timestamps are read from the first whitespace-delimited token of a line
// (see DefaultTimestamp). A line whose timestamp cannot be parsed never
// satisfies a time constraint.
//
// # Pattern Files
//
// Patterns can also be defined in YAML; see the pattern subpackage.
//
// # Batch and Watch
//
// Execute runs a set of graphs over a set of files concurrently.
// A Watcher follows one growing file and reports each occurrence as the
// line completing it is written.
package logchase
