package logchase

import (
	"regexp"
	"strings"
)

const (
	// Placeholder marks an interpolation point for a previously captured value.
	Placeholder = "{}"

	// CaptureGroupLiteral is the capturing sub-pattern counted by MaxGroups.
	CaptureGroupLiteral = "(.*)"
)

// Template is a line pattern split on Placeholder into literal segments.
// A template without placeholders is a plain regular expression.
type Template struct {
	raw      string
	segments []string
	re       *regexp.Regexp // set by compile for templates without placeholders
}

// ParseTemplate splits pattern into literal segments.
func ParseTemplate(pattern string) Template {
	return Template{raw: pattern, segments: strings.Split(pattern, Placeholder)}
}

// String returns the pattern as written.
func (t Template) String() string {
	return t.raw
}

// Segments returns the literal segments. There is always one more segment
// than there are placeholders.
func (t Template) Segments() []string {
	return append([]string(nil), t.segments...)
}

// Placeholders returns the number of group references the template requires.
func (t Template) Placeholders() int {
	return len(t.segments) - 1
}

// MaxGroups returns the exclusive upper bound accepted by Handle.At for a
// match step using this template.
//
// The bound is the number of segments produced by splitting the pattern on
// CaptureGroupLiteral, which is one more than the number of (.*) groups.
// Existing pattern definitions index against this bound, so it is kept.
func (t Template) MaxGroups() int {
	if t.raw == "" {
		return 0
	}
	return strings.Count(t.raw, CaptureGroupLiteral) + 1
}

// Expr substitutes values into the placeholders, each as literal text.
// len(values) must equal Placeholders().
func (t Template) Expr(values []string) string {
	if len(t.segments) == 1 {
		return t.segments[0]
	}
	var sb strings.Builder
	for i, v := range values {
		sb.WriteString(t.segments[i])
		sb.WriteString(regexp.QuoteMeta(v))
	}
	sb.WriteString(t.segments[len(t.segments)-1])
	return sb.String()
}

// compile checks that the literal text is a valid expression by compiling it
// with empty substitutions. Templates without placeholders keep the result.
func (t Template) compile() (Template, error) {
	re, err := regexp.Compile(strings.Join(t.segments, ""))
	if err != nil {
		return Template{}, &PatternError{Pattern: t.raw, Cause: err}
	}
	if len(t.segments) == 1 {
		t.re = re
	}
	return t, nil
}
