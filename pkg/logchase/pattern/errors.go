package pattern

import "fmt"

// ValidationError represents a file-level validation error, such as an
// unsupported version or a missing patterns list.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// PatternError represents an error in one pattern as a whole.
type PatternError struct {
	Index   int    // 0-based index of the pattern in the file
	ID      string // may be empty if the id field is missing
	Field   string
	Message string
}

func (e *PatternError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("pattern %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("pattern[%d]: %s: %s", e.Index, e.Field, e.Message)
}

// StepError represents an error in a single step of a pattern.
type StepError struct {
	Pattern string // pattern id
	Step    int    // 0-based step index
	Field   string
	Message string
	Cause   error // underlying builder error, if any
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pattern %q: step %d: %s: %s", e.Pattern, e.Step, e.Field, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StepError) Unwrap() error {
	return e.Cause
}
