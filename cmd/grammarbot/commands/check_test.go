package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-grammarbot/internal/config"
	"github.com/askiada/go-grammarbot/pkg/grammarbot"
	"github.com/askiada/go-grammarbot/pkg/pipeline/measure"
)

// grammarServer flags "their" in every checked text.
func grammarServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		text := r.URL.Query().Get("text")

		res := grammarbot.Response{Matches: []grammarbot.Match{}}
		if idx := strings.Index(text, "their"); idx >= 0 {
			res.Matches = append(res.Matches, grammarbot.Match{
				Message:      "Did you mean there?",
				Offset:       idx,
				Length:       5,
				Replacements: []grammarbot.Replacement{{Value: "there"}},
				Rule:         grammarbot.Rule{ID: "CONFUSION_RULE", Category: grammarbot.Category{ID: "TYPOS"}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(res))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testCLI(t *testing.T, baseURL string) *CLI {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvBaseURL, baseURL)
	t.Setenv(config.EnvLanguage, "")

	dir := t.TempDir()

	return &CLI{
		Config:  filepath.Join(dir, "grammarbot.yml"),
		EnvFile: []string{filepath.Join(dir, ".env")},
	}
}

func TestCheckText(t *testing.T) {
	srv := grammarServer(t)
	cli := testCLI(t, srv.URL)

	var out bytes.Buffer
	cmd := &CheckCmd{Text: []string{"I can't remember how to go their.", "All good."}, Fix: true, Format: "text"}
	require.NoError(t, cmd.Run(context.Background(), &Global{Out: &out}, cli))

	assert.Equal(t, `arg 1: 1 issue(s)
  1:28 "their" -> there [CONFUSION_RULE] Did you mean there?
I can't remember how to go there.
arg 2: no issues
`, out.String())
}

func TestCheckJSON(t *testing.T) {
	srv := grammarServer(t)
	cli := testCLI(t, srv.URL)

	file := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(file, []byte("Go their now."), 0o600))

	var out bytes.Buffer
	cmd := &CheckCmd{File: []string{file}, Stdin: true, Format: "json"}
	require.NoError(t, cmd.Run(context.Background(), &Global{Out: &out, In: strings.NewReader("fine")}, cli))

	var reports []jsonReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, file, reports[0].Name)
	assert.Len(t, reports[0].Matches, 1)
	assert.Equal(t, "stdin", reports[1].Name)
	assert.Empty(t, reports[1].Matches)
	assert.Empty(t, reports[1].Corrected)
}

func TestCheckFailOnIssues(t *testing.T) {
	srv := grammarServer(t)
	cli := testCLI(t, srv.URL)

	cmd := &CheckCmd{Text: []string{"go their"}, FailOnIssues: true}
	err := cmd.Run(context.Background(), &Global{Out: &bytes.Buffer{}}, cli)
	require.ErrorIs(t, err, ErrIssuesFound)
}

func TestCheckOutputs(t *testing.T) {
	srv := grammarServer(t)
	cli := testCLI(t, srv.URL)

	dir := t.TempDir()
	cmd := &CheckCmd{
		Text:            []string{"go their", "fine"},
		Graph:           filepath.Join(dir, "check.dot"),
		MetricsTextfile: filepath.Join(dir, "grammarbot.prom"),
	}
	require.NoError(t, cmd.Run(context.Background(), &Global{Out: &bytes.Buffer{}}, cli))

	dot, err := os.ReadFile(cmd.Graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"check" -> "triage"`)

	metrics, err := os.ReadFile(cmd.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `grammarbot_requests_total{code="200"} 2`)
}

func TestCheckNothing(t *testing.T) {
	t.Parallel()

	err := (&CheckCmd{}).Run(context.Background(), &Global{Out: &bytes.Buffer{}}, &CLI{})
	require.Error(t, err)
}

func TestCheckMissingAPIKey(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvLanguage, "")
	dir := t.TempDir()
	cli := &CLI{Config: filepath.Join(dir, "grammarbot.yml"), EnvFile: []string{filepath.Join(dir, ".env")}}

	err := (&CheckCmd{Text: []string{"text"}}).Run(context.Background(), &Global{Out: &bytes.Buffer{}}, cli)
	require.ErrorIs(t, err, grammarbot.ErrEmptyAPIKey)
}

func TestLogStageSummaries(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	msr.AddMetric("check", 1).AddDuration(2 * time.Millisecond)
	msr.AddMetric("report", 1).AddDuration(time.Millisecond)
	msr.AddMetric("idle", 1)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logStageSummaries(context.Background(), logger, msr)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "step=check")
	assert.Contains(t, lines[0], "count=1")
	assert.Contains(t, lines[1], "step=report")
	assert.NotContains(t, buf.String(), "idle")

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logStageSummaries(context.Background(), quiet, msr)
	assert.Empty(t, buf.String())
}
