package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-grammarbot/pkg/ciconfig"
)

func TestCIInitThenValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".circleci", "config.yml")
	var out bytes.Buffer
	g := &Global{Out: &out}

	require.NoError(t, (&CIInitCmd{Preset: "rust", Output: path}).Run(g))
	assert.Contains(t, out.String(), "Wrote the rust pipeline to")

	cfg, err := ciconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ciconfig.RustPreset(), cfg)

	out.Reset()
	require.NoError(t, (&CIValidateCmd{File: path}).Run(g))
	assert.Equal(t, path+" is valid\n", out.String())
}

func TestCIInitExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("version: 2\n"), 0o600))
	g := &Global{Out: &bytes.Buffer{}}

	require.Error(t, (&CIInitCmd{Preset: "go", Output: path}).Run(g))
	require.NoError(t, (&CIInitCmd{Preset: "go", Output: path, Force: true}).Run(g))

	cfg, err := ciconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ciconfig.GoPreset(), cfg)
}

func TestCIInitStdout(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, (&CIInitCmd{Preset: "go", Output: "-"}).Run(&Global{Out: &out}))

	cfg, err := ciconfig.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ciconfig.GoPreset(), cfg)
}

func TestCIValidateIssues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 2
jobs:
  build:
    docker:
      - image: circleci/rust:latest
    steps:
      - run: cargo test
`), 0o600))

	var out bytes.Buffer
	err := (&CIValidateCmd{File: path}).Run(&Global{Out: &out})
	require.ErrorIs(t, err, ciconfig.ErrInvalidConfig)
	assert.Contains(t, out.String(), "jobs.build.steps[0]: first step must be checkout")
}

func TestCIGraph(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, (&CIInitCmd{Preset: "rust", Output: path}).Run(&Global{Out: &bytes.Buffer{}}))

	var out bytes.Buffer
	require.NoError(t, (&CIGraphCmd{File: path}).Run(&Global{Out: &out}))
	assert.Contains(t, out.String(), `"start" -> "build 1: checkout"`)

	dotPath := filepath.Join(dir, "pipeline.dot")
	require.NoError(t, (&CIGraphCmd{File: path, Output: dotPath}).Run(&Global{Out: &bytes.Buffer{}}))
	data, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(data))
}
