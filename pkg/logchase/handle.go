package logchase

import "fmt"

// MatchID identifies the captures and timestamp recorded by one Match step.
// IDs are issued by a Builder and are only meaningful within its graph.
type MatchID int

// GroupRef points at one captured substring of an earlier match step.
type GroupRef struct {
	Match MatchID
	Index int

	owner *Builder
}

func (r GroupRef) String() string {
	return fmt.Sprintf("#%d[%d]", r.Match, r.Index)
}

// Handle is returned by Builder.Match. It yields group references and time
// constraints bound to that step for use in later steps.
type Handle struct {
	id        MatchID
	maxGroups int
	owner     *Builder
}

// ID returns the MatchID the step records its captures under.
func (h *Handle) ID() MatchID {
	return h.id
}

// MaxGroups returns the exclusive bound checked by At.
func (h *Handle) MaxGroups() int {
	return h.maxGroups
}

// At returns a reference to capture group index of this step.
// Index 0 is the first parenthesized group.
func (h *Handle) At(index int) (GroupRef, error) {
	if index < 0 || index >= h.maxGroups {
		return GroupRef{}, &GroupIndexError{Match: h.id, Index: index, Max: h.maxGroups}
	}
	return GroupRef{Match: h.id, Index: index, owner: h.owner}, nil
}

// MustAt is like At but panics on error. Intended for statically known
// patterns, as with regexp.MustCompile.
func (h *Handle) MustAt(index int) GroupRef {
	ref, err := h.At(index)
	if err != nil {
		panic(err)
	}
	return ref
}

// Within parses expr, for example "<20s", into a constraint relative to the
// timestamp of the line this step matched.
func (h *Handle) Within(expr string) (*TimeConstraint, error) {
	tc, err := ParseTimeConstraint(h.id, expr)
	if err != nil {
		return nil, err
	}
	tc.owner = h.owner
	return &tc, nil
}
