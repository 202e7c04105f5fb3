package parser

import (
	"regexp"
	"time"
)

// layouts are tried in order against the first token of a line.
// Layouts without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006.01.02-15:04:05",
}

// Matches a bare Unix epoch in milliseconds: "1637608727940"
var epochMillisPattern = regexp.MustCompile(`^\d{10,16}$`)

// Matches a relative offset in seconds, as used in test fixtures: "T40", "T00"
var offsetPattern = regexp.MustCompile(`^T(\d{1,9})$`)
