package logchase

import "fmt"

// Builder grows a pattern graph one step at a time. Each step extends the
// graph from its tail node. The first error is kept and returned by Graph;
// later steps are ignored once a step has failed.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	g        *Graph
	tail     NodeID
	nextID   MatchID
	err      error
	finished bool
}

// NewBuilder starts an empty graph whose only node is both start and
// accepting.
func NewBuilder(description string) *Builder {
	g := newGraph(description)
	return &Builder{g: g, tail: g.start}
}

// MatchAllRepeat lets the matcher skip zero or more lines of any content at
// this point. tc may be nil. A constraint given here is stored on the
// transition but is not evaluated while matching.
func (b *Builder) MatchAllRepeat(tc *TimeConstraint) error {
	if err := b.usable(); err != nil {
		return err
	}
	if err := b.checkConstraint(tc); err != nil {
		return b.fail(err)
	}
	b.g.addTransition(Transition{
		From: b.tail,
		To:   b.tail,
		Kind: ConsumeAny,
		Time: cloneConstraint(tc),
	})
	return nil
}

// Match requires the next line to match pattern. Placeholders in pattern are
// filled from refs in order. tc may be nil.
//
// The returned Handle refers to the groups this step captures.
func (b *Builder) Match(pattern string, tc *TimeConstraint, refs ...GroupRef) (*Handle, error) {
	if err := b.usable(); err != nil {
		return nil, err
	}
	tmpl, err := b.checkStep(pattern, tc, refs)
	if err != nil {
		return nil, b.fail(err)
	}

	next := b.g.addNode()
	id := b.nextID
	b.nextID++

	b.g.addTransition(Transition{
		From:       b.tail,
		To:         next,
		Kind:       Consume,
		Template:   tmpl,
		Refs:       copyRefs(refs),
		Time:       cloneConstraint(tc),
		Capture:    id,
		HasCapture: true,
	})
	b.tail = next

	return &Handle{id: id, maxGroups: tmpl.MaxGroups(), owner: b}, nil
}

// UnmatchRepeat lets the matcher skip zero or more lines that do not match
// pattern, stopping as soon as the rest of the graph can continue. A
// constraint in tc must hold for every skipped line.
//
//	       ε
//	 ┌───────────┐
//	 ▼           │
//	tail ──!p──► s1      s2
//	 │                   ▲
//	 └───────────────────┘
//	          ε
func (b *Builder) UnmatchRepeat(pattern string, tc *TimeConstraint, refs ...GroupRef) error {
	if err := b.usable(); err != nil {
		return err
	}
	tmpl, err := b.checkStep(pattern, tc, refs)
	if err != nil {
		return b.fail(err)
	}

	s1 := b.g.addNode()
	s2 := b.g.addNode()

	b.g.addTransition(Transition{
		From:     b.tail,
		To:       s1,
		Kind:     Consume,
		Invert:   true,
		Template: tmpl,
		Refs:     copyRefs(refs),
		Time:     cloneConstraint(tc),
	})
	b.g.addTransition(Transition{From: s1, To: b.tail, Kind: Epsilon})
	b.g.addTransition(Transition{From: b.tail, To: s2, Kind: Epsilon})
	b.tail = s2
	return nil
}

// Graph finishes construction. Later steps fail with ErrBuilderFinished, so
// the returned graph never changes. Calling Graph again returns the same
// graph.
func (b *Builder) Graph() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.finished = true
	return b.g, nil
}

// Err returns the first error recorded by a step, if any.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) usable() error {
	if b.err != nil {
		return b.err
	}
	if b.finished {
		return ErrBuilderFinished
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.err = err
	return err
}

func (b *Builder) checkStep(pattern string, tc *TimeConstraint, refs []GroupRef) (Template, error) {
	tmpl := ParseTemplate(pattern)
	if tmpl.Placeholders() != len(refs) {
		return Template{}, &GroupCountError{Pattern: pattern, Want: tmpl.Placeholders(), Got: len(refs)}
	}
	for _, r := range refs {
		if r.owner != b {
			return Template{}, fmt.Errorf("group reference %s: %w", r, ErrForeignHandle)
		}
	}
	if err := b.checkConstraint(tc); err != nil {
		return Template{}, err
	}
	return tmpl.compile()
}

func (b *Builder) checkConstraint(tc *TimeConstraint) error {
	if tc == nil {
		return nil
	}
	if tc.owner != b {
		return fmt.Errorf("time constraint %s: %w", tc, ErrForeignHandle)
	}
	return nil
}

func copyRefs(refs []GroupRef) []GroupRef {
	if len(refs) == 0 {
		return nil
	}
	return append([]GroupRef(nil), refs...)
}

func cloneConstraint(tc *TimeConstraint) *TimeConstraint {
	if tc == nil {
		return nil
	}
	c := *tc
	return &c
}
