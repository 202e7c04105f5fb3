// Package pattern loads multi-line log patterns from YAML files and compiles
// them into logchase graphs.
//
// A pattern file looks like:
//
//	version: 1
//	patterns:
//	  - id: gray_screen
//	    description: gray screen shortly after a window resize
//	    steps:
//	      - op: skip_any
//	      - op: match
//	        name: resize
//	        regex: 'Calling onWindowResize for window ([^ ]*)'
//	      - op: skip_any
//	      - op: match
//	        regex: 'Window {} info:'
//	        groups: [resize.0]
//	        time: '<20s'
//
// Each step has an op: skip_any skips any number of lines, match consumes
// one line matching regex, and skip_unmatched skips lines that do not match
// regex. A {} in regex is replaced by the captured text named in groups, in
// order. time constrains the step's line relative to the line of the match
// step named by time_ref, which defaults to the step of the first group.
package pattern

// Op is the kind of a pattern step.
type Op string

// Step kinds.
const (
	OpSkipAny       Op = "skip_any"
	OpMatch         Op = "match"
	OpSkipUnmatched Op = "skip_unmatched"
)

// File represents a YAML pattern file.
type File struct {
	Version  int       `yaml:"version"`
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern is one named multi-line pattern.
type Pattern struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one builder step of a pattern.
type Step struct {
	Op    Op     `yaml:"op"`
	Regex string `yaml:"regex,omitempty"`
	// Name labels a match step so later steps can reference its groups.
	Name string `yaml:"name,omitempty"`
	// Groups lists "name.index" references substituted into Regex.
	Groups  []string `yaml:"groups,omitempty"`
	Time    string   `yaml:"time,omitempty"`
	TimeRef string   `yaml:"time_ref,omitempty"`
}
