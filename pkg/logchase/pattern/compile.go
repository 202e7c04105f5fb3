package pattern

import (
	"fmt"
	"sort"

	"github.com/logchase/logchase-go/pkg/logchase"
)

// Compiled is a pattern built into a graph.
type Compiled struct {
	ID          string
	Description string
	Graph       *logchase.Graph
	// Handles maps step names to their capture handles.
	Handles map[string]*logchase.Handle
}

// Names returns the step names with handles, sorted.
func (c Compiled) Names() []string {
	names := make([]string, 0, len(c.Handles))
	for n := range c.Handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Groups returns the captures of every named step on the result's path.
func (c Compiled) Groups(res logchase.Result) map[string][]string {
	out := make(map[string][]string, len(c.Handles))
	for name, h := range c.Handles {
		if g, ok := res.Groups(h); ok {
			out[name] = g
		}
	}
	return out
}

// Compile builds a graph for every pattern in pf. pf is validated first.
func Compile(pf *File) ([]Compiled, error) {
	if err := pf.Validate(); err != nil {
		return nil, err
	}
	out := make([]Compiled, 0, len(pf.Patterns))
	for _, p := range pf.Patterns {
		c, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CompileFile loads and compiles a pattern file.
func CompileFile(path string) ([]Compiled, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(pf)
}

func compilePattern(p Pattern) (Compiled, error) {
	b := logchase.NewBuilder(p.ID)
	handles := make(map[string]*logchase.Handle)

	for i, s := range p.Steps {
		wrap := func(field string, err error) error {
			return &StepError{Pattern: p.ID, Step: i, Field: field, Message: err.Error(), Cause: err}
		}

		refs := make([]logchase.GroupRef, 0, len(s.Groups))
		for _, g := range s.Groups {
			name, idx, err := parseGroupRef(g)
			if err != nil {
				return Compiled{}, wrap("groups", err)
			}
			ref, err := handles[name].At(idx)
			if err != nil {
				return Compiled{}, wrap("groups", fmt.Errorf("%s: %w", g, err))
			}
			refs = append(refs, ref)
		}

		var tc *logchase.TimeConstraint
		if s.Time != "" {
			var err error
			tc, err = handles[timeRef(s)].Within(s.Time)
			if err != nil {
				return Compiled{}, wrap("time", err)
			}
		}

		switch s.Op {
		case OpSkipAny:
			if err := b.MatchAllRepeat(tc); err != nil {
				return Compiled{}, wrap("op", err)
			}
		case OpMatch:
			h, err := b.Match(s.Regex, tc, refs...)
			if err != nil {
				return Compiled{}, wrap("regex", err)
			}
			if s.Name != "" {
				handles[s.Name] = h
			}
		case OpSkipUnmatched:
			if err := b.UnmatchRepeat(s.Regex, tc, refs...); err != nil {
				return Compiled{}, wrap("regex", err)
			}
		}
	}

	g, err := b.Graph()
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{ID: p.ID, Description: p.Description, Graph: g, Handles: handles}, nil
}

// Select returns the compiled patterns with the given ids, in the order the
// ids are given. An empty ids returns all patterns.
func Select(all []Compiled, ids []string) ([]Compiled, error) {
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]Compiled, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	out := make([]Compiled, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown pattern id %q", id)
		}
		out = append(out, c)
	}
	return out, nil
}

// Graphs returns the graphs of cs in order.
func Graphs(cs []Compiled) []*logchase.Graph {
	gs := make([]*logchase.Graph, len(cs))
	for i, c := range cs {
		gs[i] = c.Graph
	}
	return gs
}
