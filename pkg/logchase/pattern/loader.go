package pattern

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/logchase/logchase-go/internal/safefile"
)

// sanitizePathError removes the path from os.PathError so error messages
// don't expose file system paths.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

const (
	// MaxPatternFileSize is the maximum allowed size for a pattern file (1MB).
	MaxPatternFileSize = 1 * 1024 * 1024

	// MaxPatternLength is the maximum allowed length for a step regex.
	MaxPatternLength = 512

	// MaxPatternCount is the maximum number of patterns in a file.
	MaxPatternCount = 1000

	// MaxStepCount is the maximum number of steps in a pattern. Every skip
	// step multiplies the work of a search, so long patterns are rejected.
	MaxStepCount = 64

	// SupportedVersion is the currently supported pattern file format version.
	SupportedVersion = 1
)

// namePattern restricts step names so "name.index" references are
// unambiguous.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads and parses a pattern file from the given path.
// Symlinks, FIFOs and devices are rejected, and at most MaxPatternFileSize
// bytes are read.
//
// Example:
//
//	pf, err := pattern.Load("patterns.yaml")
//	if err != nil {
//	    log.Fatalf("failed to load pattern file: %v", err)
//	}
func Load(path string) (*File, error) {
	data, err := safefile.ReadAll(path, MaxPatternFileSize)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, errors.New("pattern file must be a regular file (not symlink, FIFO, device, or special file)")
		}
		return nil, fmt.Errorf("failed to read pattern file: %w", sanitizePathError(err))
	}
	return LoadBytes(data)
}

// LoadBytes parses a pattern file from a byte slice.
func LoadBytes(data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, errors.New("pattern file is empty")
	}
	if len(data) > MaxPatternFileSize {
		return nil, fmt.Errorf("pattern file too large: %d bytes (max %d)", len(data), MaxPatternFileSize)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := pf.Validate(); err != nil {
		return nil, err
	}

	return &pf, nil
}

// Validate performs schema-level validation on the pattern file.
// It checks for:
//   - Supported version number
//   - At least one pattern, unique ids
//   - Known step ops with the fields each op allows
//   - Group and time references naming an earlier match step
//   - Length and count limits
//
// Regular expressions and time expressions are checked by Compile.
func (pf *File) Validate() error {
	if pf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", pf.Version, SupportedVersion),
		}
	}
	if len(pf.Patterns) == 0 {
		return &ValidationError{
			Field:   "patterns",
			Message: "at least one pattern is required",
		}
	}
	if len(pf.Patterns) > MaxPatternCount {
		return &ValidationError{
			Field:   "patterns",
			Message: fmt.Sprintf("too many patterns (%d), maximum allowed is %d", len(pf.Patterns), MaxPatternCount),
		}
	}

	seenIDs := make(map[string]int, len(pf.Patterns))
	for i, p := range pf.Patterns {
		if p.ID == "" {
			return &PatternError{Index: i, Field: "id", Message: "id is required"}
		}
		if prev, exists := seenIDs[p.ID]; exists {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at pattern[%d])", prev),
			}
		}
		seenIDs[p.ID] = i

		if len(p.Steps) == 0 {
			return &PatternError{Index: i, ID: p.ID, Field: "steps", Message: "at least one step is required"}
		}
		if len(p.Steps) > MaxStepCount {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "steps",
				Message: fmt.Sprintf("too many steps (%d), maximum allowed is %d", len(p.Steps), MaxStepCount),
			}
		}
		if err := validateSteps(p); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(p Pattern) error {
	names := make(map[string]bool)
	for i, s := range p.Steps {
		fail := func(field, msg string) error {
			return &StepError{Pattern: p.ID, Step: i, Field: field, Message: msg}
		}

		switch s.Op {
		case OpSkipAny:
			if s.Regex != "" || len(s.Groups) > 0 {
				return fail("regex", "skip_any does not take a regex or groups")
			}
		case OpMatch, OpSkipUnmatched:
			if s.Regex == "" {
				return fail("regex", "regex is required")
			}
			if len(s.Regex) > MaxPatternLength {
				return fail("regex", fmt.Sprintf("pattern too long: %d bytes (max %d)", len(s.Regex), MaxPatternLength))
			}
		case "":
			return fail("op", "op is required")
		default:
			return fail("op", fmt.Sprintf("unknown op %q (want %s, %s or %s)", s.Op, OpSkipAny, OpMatch, OpSkipUnmatched))
		}

		if s.Name != "" && s.Op != OpMatch {
			return fail("name", "only match steps can be named")
		}

		for _, g := range s.Groups {
			name, _, err := parseGroupRef(g)
			if err != nil {
				return fail("groups", err.Error())
			}
			if !names[name] {
				return fail("groups", fmt.Sprintf("%q does not name an earlier match step", name))
			}
		}

		if s.TimeRef != "" && s.Time == "" {
			return fail("time_ref", "time_ref requires time")
		}
		if s.Time != "" {
			ref := timeRef(s)
			if ref == "" {
				return fail("time", "time requires time_ref or groups")
			}
			if !names[ref] {
				return fail("time_ref", fmt.Sprintf("%q does not name an earlier match step", ref))
			}
		}

		if s.Name != "" {
			if !namePattern.MatchString(s.Name) {
				return fail("name", fmt.Sprintf("invalid name %q", s.Name))
			}
			if names[s.Name] {
				return fail("name", fmt.Sprintf("duplicate name %q", s.Name))
			}
			names[s.Name] = true
		}
	}
	return nil
}

// parseGroupRef splits "name.index".
func parseGroupRef(ref string) (string, int, error) {
	name, idx, ok := strings.Cut(ref, ".")
	if !ok || name == "" || idx == "" {
		return "", 0, fmt.Errorf("group reference %q must have the form name.index", ref)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("group reference %q has an invalid index", ref)
	}
	return name, n, nil
}

// timeRef returns the step name a time constraint is relative to.
func timeRef(s Step) string {
	if s.TimeRef != "" {
		return s.TimeRef
	}
	if len(s.Groups) > 0 {
		name, _, _ := strings.Cut(s.Groups[0], ".")
		return name
	}
	return ""
}
