package logchase

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrGroupIndexOutOfRange is matched by *GroupIndexError.
	ErrGroupIndexOutOfRange = errors.New("group index out of range")

	// ErrMalformedTimeConstraint indicates a time constraint that is not of
	// the form <op><integer><unit>.
	ErrMalformedTimeConstraint = errors.New("malformed time constraint")

	// ErrUnsupportedTimeUnit indicates a time constraint unit other than "s".
	ErrUnsupportedTimeUnit = errors.New("unsupported time unit")

	// ErrForeignHandle indicates a group reference or time constraint that was
	// produced by a different Builder.
	ErrForeignHandle = errors.New("handle belongs to a different builder")

	// ErrBuilderFinished is returned by steps added after Builder.Graph.
	ErrBuilderFinished = errors.New("builder already finished")

	// ErrSearchBudgetExceeded indicates the matcher gave up before deciding.
	// It is never returned for a plain "no match" result.
	ErrSearchBudgetExceeded = errors.New("search budget exceeded")

	// ErrInvalidTimestamp indicates a line whose timestamp could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrWatcherClosed is returned when Watch is called on a closed watcher.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("already watching")
)

// GroupIndexError is returned by Handle.At for an index outside the
// template's declared group bound.
type GroupIndexError struct {
	Match MatchID
	Index int
	Max   int
}

func (e *GroupIndexError) Error() string {
	return fmt.Sprintf("group index %d out of range for match %d (max %d)", e.Index, e.Match, e.Max)
}

// Is reports whether target is ErrGroupIndexOutOfRange.
func (e *GroupIndexError) Is(target error) bool {
	return target == ErrGroupIndexOutOfRange
}

// GroupCountError is returned when the number of group references passed to a
// builder step differs from the number of placeholders in its template.
type GroupCountError struct {
	Pattern string
	Want    int
	Got     int
}

func (e *GroupCountError) Error() string {
	return fmt.Sprintf("pattern %q has %d placeholders but %d group references were given", e.Pattern, e.Want, e.Got)
}

// TimeConstraintError describes a time constraint expression that could not
// be parsed.
type TimeConstraintError struct {
	Expr string
	Err  error // ErrMalformedTimeConstraint or ErrUnsupportedTimeUnit
}

func (e *TimeConstraintError) Error() string {
	return fmt.Sprintf("time constraint %q: %v", e.Expr, e.Err)
}

func (e *TimeConstraintError) Unwrap() error {
	return e.Err
}

// PatternError indicates a template whose literal text is not a valid
// regular expression.
type PatternError struct {
	Pattern string
	Cause   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Cause)
}

// Unwrap returns the underlying regexp error.
func (e *PatternError) Unwrap() error {
	return e.Cause
}

// ReadError wraps failures to read a line source from a file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WatchOp names the watcher stage that failed.
type WatchOp string

// Watcher stages reported in WatchError.
const (
	WatchOpWait  WatchOp = "wait"
	WatchOpTail  WatchOp = "tail"
	WatchOpMatch WatchOp = "match"
)

// WatchError is sent on a watcher's error channel.
type WatchError struct {
	Op    WatchOp
	Path  string
	Graph string // set for WatchOpMatch
	Err   error
}

func (e *WatchError) Error() string {
	switch {
	case e.Graph != "":
		return fmt.Sprintf("watch %s %s (%s): %v", e.Op, e.Path, e.Graph, e.Err)
	case e.Path != "":
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	default:
		return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
	}
}

func (e *WatchError) Unwrap() error {
	return e.Err
}
