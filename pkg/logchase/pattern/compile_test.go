package pattern_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

func TestCompileFile_GrayScreen(t *testing.T) {
	compiled, err := pattern.CompileFile("testdata/valid.yaml")
	require.NoError(t, err)
	require.Len(t, compiled, 2)

	gray := compiled[0]
	assert.Equal(t, "gray_screen", gray.ID)
	assert.Equal(t, "gray_screen", gray.Graph.Description())
	assert.Equal(t, []string{"resize"}, gray.Names())

	lines, err := logchase.OpenFile("../testdata/gray_screen.log")
	require.NoError(t, err)

	res, err := logchase.Find(context.Background(), lines, gray.Graph)
	require.NoError(t, err)
	require.True(t, res.Matched)

	want := map[string][]string{"resize": {"0x48004b5"}}
	if diff := cmp.Diff(want, gray.Groups(res)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

// The compiled file must behave exactly like the same pattern built by hand.
func TestCompile_SameVerdictAsBuilder(t *testing.T) {
	compiled, err := pattern.CompileFile("testdata/valid.yaml")
	require.NoError(t, err)
	dogColor := compiled[1]

	b := logchase.NewBuilder("dog_color")
	require.NoError(t, b.MatchAllRepeat(nil))
	dog, err := b.Match("dog is (.*) and (.*)", nil)
	require.NoError(t, err)
	require.NoError(t, b.UnmatchRepeat("cat is", nil))
	within, err := dog.Within("<20s")
	require.NoError(t, err)
	_, err = b.Match("color is {}", within, dog.MustAt(1))
	require.NoError(t, err)
	manual, err := b.Graph()
	require.NoError(t, err)

	inputs := []logchase.Lines{
		{"T00 dog is big and black", "T10 color is black"},
		{"T00 dog is big and black", "T30 color is black"},
		{"T00 dog is big and black", "T05 cat is here", "T10 color is black"},
		{"T00 dog is big and white", "T05 noise", "T10 color is white"},
		{"T00 dog is big and white", "T05 noise", "T10 color is black"},
		{},
	}
	ctx := context.Background()
	for i, lines := range inputs {
		want, err := logchase.Match(ctx, lines, manual)
		require.NoError(t, err)
		got, err := logchase.Match(ctx, lines, dogColor.Graph)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %d", i)
	}
}

func TestCompile_GroupIndexOutOfRange(t *testing.T) {
	_, err := pattern.CompileFile("testdata/bad_index.yaml")
	require.Error(t, err)

	var stepErr *pattern.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "out_of_range", stepErr.Pattern)
	assert.Equal(t, 1, stepErr.Step)
	assert.ErrorIs(t, err, logchase.ErrGroupIndexOutOfRange)
}

func TestCompile_UnsupportedTimeUnit(t *testing.T) {
	_, err := pattern.CompileFile("testdata/bad_time.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, logchase.ErrUnsupportedTimeUnit)

	var stepErr *pattern.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "time", stepErr.Field)
}

func TestCompile_InvalidRegex(t *testing.T) {
	pf := &pattern.File{
		Version: 1,
		Patterns: []pattern.Pattern{{
			ID:    "broken",
			Steps: []pattern.Step{{Op: pattern.OpMatch, Regex: "a(b"}},
		}},
	}
	_, err := pattern.Compile(pf)
	var perr *logchase.PatternError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "a(b", perr.Pattern)
}

func TestCompile_PlaceholderCountMismatch(t *testing.T) {
	pf := &pattern.File{
		Version: 1,
		Patterns: []pattern.Pattern{{
			ID: "mismatch",
			Steps: []pattern.Step{
				{Op: pattern.OpMatch, Regex: "(.*)", Name: "x"},
				{Op: pattern.OpMatch, Regex: "{} {}", Groups: []string{"x.0"}},
			},
		}},
	}
	_, err := pattern.Compile(pf)
	var countErr *logchase.GroupCountError
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 2, countErr.Want)
	assert.Equal(t, 1, countErr.Got)
}

func TestCompile_ValidatesFirst(t *testing.T) {
	_, err := pattern.Compile(&pattern.File{Version: 3})
	var valErr *pattern.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestSelect(t *testing.T) {
	compiled, err := pattern.CompileFile("testdata/valid.yaml")
	require.NoError(t, err)

	all, err := pattern.Select(compiled, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := pattern.Select(compiled, []string{"dog_color", "gray_screen"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "dog_color", some[0].ID)
	assert.Equal(t, "gray_screen", some[1].ID)

	graphs := pattern.Graphs(some)
	require.Len(t, graphs, 2)
	assert.Same(t, some[0].Graph, graphs[0])

	_, err = pattern.Select(compiled, []string{"nope"})
	assert.ErrorContains(t, err, `unknown pattern id "nope"`)
}
