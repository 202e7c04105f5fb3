package pattern_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

func TestLoad_Valid(t *testing.T) {
	pf, err := pattern.Load("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, pf.Version)
	require.Len(t, pf.Patterns, 2)

	gray := pf.Patterns[0]
	assert.Equal(t, "gray_screen", gray.ID)
	require.Len(t, gray.Steps, 8)
	assert.Equal(t, pattern.OpSkipAny, gray.Steps[0].Op)
	assert.Equal(t, "resize", gray.Steps[1].Name)
	assert.Equal(t, []string{"resize.0"}, gray.Steps[3].Groups)
	assert.Equal(t, "<20s", gray.Steps[3].Time)

	assert.Equal(t, "dog_color", pf.Patterns[1].ID)
	assert.Equal(t, pattern.OpSkipUnmatched, pf.Patterns[1].Steps[2].Op)
}

func TestLoad_MissingFields(t *testing.T) {
	_, err := pattern.Load("testdata/missing_fields.yaml")
	require.Error(t, err)
	var stepErr *pattern.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "no_regex", stepErr.Pattern)
	assert.Equal(t, 1, stepErr.Step)
	assert.Contains(t, err.Error(), "regex is required")
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := pattern.Load("testdata/unsupported_version.yaml")
	require.Error(t, err)
	var valErr *pattern.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestLoad_DuplicateID(t *testing.T) {
	_, err := pattern.Load("testdata/duplicate_id.yaml")
	require.Error(t, err)
	var patErr *pattern.PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Equal(t, 1, patErr.Index)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestLoad_UnknownReference(t *testing.T) {
	_, err := pattern.Load("testdata/unknown_ref.yaml")
	require.Error(t, err)
	var stepErr *pattern.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "groups", stepErr.Field)
	assert.Contains(t, err.Error(), "earlier match step")
}

func TestLoad_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := pattern.Load(filepath.Join(dir, "nonexistent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read pattern file")
	assert.NotContains(t, err.Error(), dir, "path must not leak into the error")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Symlink(t *testing.T) {
	dir := t.TempDir()
	target, err := filepath.Abs("testdata/valid.yaml")
	require.NoError(t, err)
	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err = pattern.Load(link)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regular file")
}

func TestLoadBytes_Empty(t *testing.T) {
	_, err := pattern.LoadBytes([]byte{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadBytes_InvalidYAML(t *testing.T) {
	_, err := pattern.LoadBytes([]byte("version: [1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadBytes_TooLarge(t *testing.T) {
	data := make([]byte, pattern.MaxPatternFileSize+1)
	_, err := pattern.LoadBytes(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidate(t *testing.T) {
	match := func(regex string) pattern.Step {
		return pattern.Step{Op: pattern.OpMatch, Regex: regex}
	}

	tests := []struct {
		name    string
		steps   []pattern.Step
		wantErr string
	}{
		{
			name:  "valid",
			steps: []pattern.Step{{Op: pattern.OpSkipAny}, match("a")},
		},
		{
			name:    "no steps",
			wantErr: "at least one step",
		},
		{
			name:    "missing op",
			steps:   []pattern.Step{{Regex: "a"}},
			wantErr: "op is required",
		},
		{
			name:    "unknown op",
			steps:   []pattern.Step{{Op: "skip_some", Regex: "a"}},
			wantErr: `unknown op "skip_some"`,
		},
		{
			name:    "skip_any with regex",
			steps:   []pattern.Step{{Op: pattern.OpSkipAny, Regex: "a"}},
			wantErr: "does not take a regex",
		},
		{
			name:    "regex too long",
			steps:   []pattern.Step{match(strings.Repeat("a", pattern.MaxPatternLength+1))},
			wantErr: "pattern too long",
		},
		{
			name:    "named skip",
			steps:   []pattern.Step{{Op: pattern.OpSkipUnmatched, Regex: "a", Name: "x"}},
			wantErr: "only match steps can be named",
		},
		{
			name:    "invalid name",
			steps:   []pattern.Step{{Op: pattern.OpMatch, Regex: "a", Name: "a.b"}},
			wantErr: "invalid name",
		},
		{
			name: "duplicate name",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "a", Name: "x"},
				{Op: pattern.OpMatch, Regex: "b", Name: "x"},
			},
			wantErr: "duplicate name",
		},
		{
			name: "malformed group",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "(.*)", Name: "x"},
				{Op: pattern.OpMatch, Regex: "{}", Groups: []string{"x"}},
			},
			wantErr: "name.index",
		},
		{
			name: "negative group index",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "(.*)", Name: "x"},
				{Op: pattern.OpMatch, Regex: "{}", Groups: []string{"x.-1"}},
			},
			wantErr: "invalid index",
		},
		{
			name: "self reference",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "{}", Name: "x", Groups: []string{"x.0"}},
			},
			wantErr: "earlier match step",
		},
		{
			name: "time without reference",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "a", Name: "x"},
				{Op: pattern.OpMatch, Regex: "b", Time: "<5s"},
			},
			wantErr: "time requires time_ref or groups",
		},
		{
			name: "time_ref without time",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "a", Name: "x"},
				{Op: pattern.OpMatch, Regex: "b", TimeRef: "x"},
			},
			wantErr: "time_ref requires time",
		},
		{
			name: "unknown time_ref",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "a", Name: "x"},
				{Op: pattern.OpMatch, Regex: "b", Time: "<5s", TimeRef: "y"},
			},
			wantErr: `"y" does not name`,
		},
		{
			name: "time relative to group step",
			steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "(.*)", Name: "x"},
				{Op: pattern.OpSkipUnmatched, Regex: "{}", Groups: []string{"x.0"}, Time: "<5s"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := &pattern.File{
				Version:  1,
				Patterns: []pattern.Pattern{{ID: "p", Steps: tt.steps}},
			}
			err := pf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Limits(t *testing.T) {
	pf := &pattern.File{Version: 1}
	for i := 0; i <= pattern.MaxPatternCount; i++ {
		pf.Patterns = append(pf.Patterns, pattern.Pattern{
			ID:    fmt.Sprintf("p%d", i),
			Steps: []pattern.Step{{Op: pattern.OpSkipAny}},
		})
	}
	err := pf.Validate()
	var valErr *pattern.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "too many patterns")

	steps := make([]pattern.Step, pattern.MaxStepCount+1)
	for i := range steps {
		steps[i] = pattern.Step{Op: pattern.OpSkipAny}
	}
	pf = &pattern.File{Version: 1, Patterns: []pattern.Pattern{{ID: "long", Steps: steps}}}
	assert.ErrorContains(t, pf.Validate(), "too many steps")

	pf = &pattern.File{Version: 1}
	assert.ErrorContains(t, pf.Validate(), "at least one pattern")

	pf = &pattern.File{Version: 1, Patterns: []pattern.Pattern{{Steps: steps[:1]}}}
	assert.ErrorContains(t, pf.Validate(), "id is required")
}
