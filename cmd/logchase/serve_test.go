package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logchase/logchase-go/pkg/logchase"
	"github.com/logchase/logchase-go/pkg/logchase/pattern"
)

func newTestServer(t *testing.T, opts ...logchase.MatchOption) *fiber.App {
	t.Helper()
	compiled, err := pattern.CompileFile("testdata/patterns.yaml")
	require.NoError(t, err)
	m, err := logchase.NewMatcher(opts...)
	require.NoError(t, err)
	return newServer(compiled, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postMatch(t *testing.T, app *fiber.App, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestServe_Patterns(t *testing.T) {
	app := newTestServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/patterns", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []patternInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "dog_color", infos[0].ID)
	assert.Equal(t, []string{"dog"}, infos[0].Names)
	assert.Equal(t, "restart", infos[1].ID)
	assert.Empty(t, infos[1].Names)
}

func TestServe_Match(t *testing.T) {
	app := newTestServer(t)

	body := `{"lines":["T00 dog is big and black","T05 noise","T10 color is black"]}`
	resp, data := postMatch(t, app, body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got matchResponse
	require.NoError(t, json.Unmarshal(data, &got))
	_, err := uuid.Parse(got.RunID)
	assert.NoError(t, err, "run id must be a uuid")

	require.Len(t, got.Results, 2)
	assert.Equal(t, "dog_color", got.Results[0].Pattern)
	assert.True(t, got.Results[0].Matched)
	assert.Equal(t, 3, got.Results[0].End)
	assert.Equal(t, map[string][]string{"dog": {"big", "black"}}, got.Results[0].Groups)
	assert.Equal(t, "restart", got.Results[1].Pattern)
	assert.False(t, got.Results[1].Matched)
}

func TestServe_MatchSelectedPatterns(t *testing.T) {
	app := newTestServer(t)

	resp, data := postMatch(t, app, `{"lines":["shutting down","starting"],"patterns":["restart"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got matchResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Results, 1)
	assert.Equal(t, "restart", got.Results[0].Pattern)
	assert.True(t, got.Results[0].Matched)
	assert.Equal(t, 0, got.Results[0].Start)
	assert.Equal(t, 2, got.Results[0].End)
}

func TestServe_MatchBudgetExceeded(t *testing.T) {
	app := newTestServer(t, logchase.WithMaxSteps(1))

	resp, data := postMatch(t, app, `{"lines":["shutting down","starting"],"patterns":["restart"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got matchResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Results, 1)
	assert.False(t, got.Results[0].Matched)
	assert.Contains(t, got.Results[0].Error, "search budget exceeded")
}

func TestServe_MatchBadRequests(t *testing.T) {
	app := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid_json", `{"lines":`},
		{"unknown_pattern", `{"lines":[],"patterns":["nope"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := postMatch(t, app, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.Unmarshal(data, &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
