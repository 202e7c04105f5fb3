package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// Record is one pattern verdict as printed by run and watch and returned by
// serve.
type Record struct {
	RunID   string `json:"run_id,omitempty"`
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
	Matched bool   `json:"matched"`
	// Start and End delimit the matched lines; End is exclusive.
	Start  int                 `json:"start"`
	End    int                 `json:"end"`
	Steps  int                 `json:"steps"`
	Groups map[string][]string `json:"groups,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func newRecord(c pattern.Compiled, res logchase.Result) Record {
	rec := Record{
		Pattern: c.ID,
		Matched: res.Matched,
		Steps:   res.Steps,
	}
	if res.Matched {
		rec.Start = res.Start()
		rec.End = res.End
		if groups := c.Groups(res); len(groups) > 0 {
			rec.Groups = groups
		}
	}
	return rec
}

func detectionRecord(c pattern.Compiled, d logchase.Detection) Record {
	rec := newRecord(c, d.Result)
	rec.Start = d.Start()
	rec.End = d.End()
	return rec
}

// OutputRecord writes a record in the specified format to the writer.
func OutputRecord(format string, rec Record, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(rec, out)
	case "pretty":
		return OutputPretty(rec, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes a record as JSON Lines format.
func OutputJSON(rec Record, out io.Writer) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes a record in human-readable format.
func OutputPretty(rec Record, out io.Writer) error {
	var sb strings.Builder
	if rec.Path != "" {
		fmt.Fprintf(&sb, "%s: ", rec.Path)
	}
	sb.WriteString(rec.Pattern)

	switch {
	case rec.Error != "":
		fmt.Fprintf(&sb, " ! %s", rec.Error)
	case rec.Matched:
		fmt.Fprintf(&sb, " + lines %d-%d", rec.Start, rec.End-1)
		if groups := formatGroups(rec.Groups); groups != "" {
			sb.WriteString(" ")
			sb.WriteString(groups)
		}
	default:
		sb.WriteString(" - no match")
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(out, sb.String())
	return err
}

// formatGroups formats captures as sorted name.index=value pairs, the same
// form pattern files use to reference them.
func formatGroups(groups map[string][]string) string {
	if len(groups) == 0 {
		return ""
	}

	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)

	var parts []string
	for _, n := range names {
		for i, v := range groups[n] {
			key := n + "." + strconv.Itoa(i)
			parts = append(parts, fmt.Sprintf("%s=%s", key, quoteIfNeeded(v)))
		}
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains spaces, equals signs, quotes,
// backslashes or control characters.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
