package logchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"

	"github.com/golang-collections/collections/stack"

	"github.com/logchase/logchase-go/internal/recache"
)

// ctxCheckInterval is how many search steps run between context checks.
const ctxCheckInterval = 1024

var errNilGraph = errors.New("logchase: nil graph")

// Matcher runs built graphs against line sources.
// A Matcher is safe for concurrent use; it holds only configuration and a
// cache of compiled expressions.
type Matcher struct {
	cfg    *matchConfig
	cache  *recache.Cache
	logger *slog.Logger
}

// NewMatcher creates a matcher with the given options.
func NewMatcher(opts ...MatchOption) (*Matcher, error) {
	cfg := applyMatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newMatcher(cfg), nil
}

func newMatcher(cfg *matchConfig) *Matcher {
	logger := cfg.logger
	if logger == nil {
		logger = discardLogger
	}
	return &Matcher{
		cfg:    cfg,
		cache:  recache.New(cfg.cacheSize),
		logger: logger,
	}
}

var defaultMatcher = newMatcher(defaultMatchConfig())

// Match reports whether src contains an occurrence of g using default
// options.
func Match(ctx context.Context, src LineSource, g *Graph) (bool, error) {
	return defaultMatcher.Match(ctx, src, g)
}

// Find is like Match but returns the bindings of the accepting path.
func Find(ctx context.Context, src LineSource, g *Graph) (Result, error) {
	return defaultMatcher.Find(ctx, src, g)
}

// Match reports whether src contains an occurrence of g.
//
// A false result with a nil error means no path through g reaches the
// accepting node. When the step budget runs out the error matches
// ErrSearchBudgetExceeded instead.
func (m *Matcher) Match(ctx context.Context, src LineSource, g *Graph) (bool, error) {
	res, err := m.Find(ctx, src, g)
	if err != nil {
		return false, err
	}
	return res.Matched, nil
}

// searchState is one in-flight path. Its maps are shared with the state it
// was derived from and are never written after the state is pushed.
type searchState struct {
	line     int
	via      *Transition
	captures map[MatchID][]string
	times    map[MatchID]stamp
}

// Find searches src for an occurrence of g and returns the first accepting
// path found. The search is depth-first: successors are pushed in the order
// their transitions were added and the most recent one is explored first.
func (m *Matcher) Find(ctx context.Context, src LineSource, g *Graph) (Result, error) {
	if g == nil {
		return Result{}, errNilGraph
	}

	work := stack.New()
	start := &Transition{From: g.start, To: g.start, Kind: Epsilon}
	work.Push(&searchState{via: start})

	steps := 0
	for work.Len() > 0 {
		if m.cfg.maxSteps > 0 && steps >= m.cfg.maxSteps {
			m.logger.Debug("search budget exceeded",
				"graph", g.description,
				"steps", steps,
				"pending", work.Len())
			return Result{Steps: steps}, fmt.Errorf("%w after %d steps", ErrSearchBudgetExceeded, steps)
		}
		steps++
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{Steps: steps}, err
			}
		}

		st := work.Pop().(*searchState)
		if g.nodes[st.via.To].Accepting {
			m.logger.Debug("pattern matched",
				"graph", g.description,
				"end", st.line,
				"steps", steps)
			return Result{
				Matched:  true,
				End:      st.line,
				Steps:    steps,
				captures: st.captures,
				times:    st.times,
			}, nil
		}

		edges := g.edges[st.via.To]
		for i := range edges {
			next, err := m.advance(src, st, &edges[i])
			if err != nil {
				return Result{Steps: steps}, err
			}
			if next != nil {
				work.Push(next)
			}
		}
	}
	return Result{Steps: steps}, nil
}

// advance applies t to st. It returns nil when the transition does not
// apply.
func (m *Matcher) advance(src LineSource, st *searchState, t *Transition) (*searchState, error) {
	switch t.Kind {
	case Epsilon:
		return &searchState{line: st.line, via: t, captures: st.captures, times: st.times}, nil

	case ConsumeAny:
		if _, ok := src.LineAt(st.line); !ok {
			return nil, nil
		}
		return &searchState{line: st.line + 1, via: t, captures: st.captures, times: st.times}, nil

	case Consume:
		text, ok := src.LineAt(st.line)
		if !ok {
			return nil, nil
		}
		re, err := m.expr(t, st.captures)
		if err != nil || re == nil {
			return nil, err
		}
		groups := re.FindStringSubmatch(text)
		if (groups != nil) == t.Invert {
			return nil, nil
		}

		record := t.HasCapture && !t.Invert
		var now stamp
		if t.Time != nil || record {
			now = stampOf(m.cfg.timestamp, text, st.line)
		}
		if t.Time != nil && !t.Time.satisfied(st.times, now) {
			return nil, nil
		}

		next := &searchState{line: st.line + 1, via: t, captures: st.captures, times: st.times}
		if record {
			next.captures = extend(st.captures, t.Capture, append([]string(nil), groups[1:]...))
			next.times = extend(st.times, t.Capture, now)
		}
		return next, nil
	}
	return nil, fmt.Errorf("logchase: unknown transition kind %s", t.Kind)
}

// expr returns the expression for t with the path's captures substituted.
// It returns nil when a referenced capture is missing from the path.
func (m *Matcher) expr(t *Transition, captures map[MatchID][]string) (*regexp.Regexp, error) {
	if t.Template.re != nil {
		return t.Template.re, nil
	}

	values := make([]string, len(t.Refs))
	for i, ref := range t.Refs {
		groups, ok := captures[ref.Match]
		if !ok || ref.Index >= len(groups) {
			return nil, nil
		}
		values[i] = groups[ref.Index]
	}

	expr := t.Template.Expr(values)
	re, err := m.cache.Get(expr)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Cause: err}
	}
	return re, nil
}

// extend returns a copy of src with key set to v.
func extend[V any](src map[MatchID]V, key MatchID, v V) map[MatchID]V {
	dst := make(map[MatchID]V, len(src)+1)
	maps.Copy(dst, src)
	dst[key] = v
	return dst
}

// Result describes the outcome of Find. When Matched is true it carries the
// captures and timestamps recorded along the accepting path.
type Result struct {
	Matched bool
	// End is the index of the first line after the occurrence.
	End int
	// Steps is the number of search states examined.
	Steps int

	captures map[MatchID][]string
	times    map[MatchID]stamp
}

// Groups returns the substrings captured by the step h refers to.
func (r Result) Groups(h *Handle) ([]string, bool) {
	g, ok := r.captures[h.id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), g...), true
}

// Timestamp returns the time of the line matched by the step h refers to.
// ok is false if the step was not reached or its timestamp was invalid.
func (r Result) Timestamp(h *Handle) (ms int64, ok bool) {
	s, ok := r.times[h.id]
	if !ok || !s.valid {
		return 0, false
	}
	return s.ms, true
}

// Line returns the index of the line matched by the step h refers to.
func (r Result) Line(h *Handle) (int, bool) {
	s, ok := r.times[h.id]
	if !ok {
		return 0, false
	}
	return s.line, true
}

// Captures returns a copy of every capture on the accepting path.
func (r Result) Captures() map[MatchID][]string {
	out := make(map[MatchID][]string, len(r.captures))
	for id, g := range r.captures {
		out[id] = append([]string(nil), g...)
	}
	return out
}

// Start returns the index of the first line matched by a capturing step,
// or End when the path captured nothing.
func (r Result) Start() int {
	start := r.End
	for _, s := range r.times {
		if s.line < start {
			start = s.line
		}
	}
	return start
}
