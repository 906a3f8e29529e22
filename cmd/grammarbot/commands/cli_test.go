package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, cli *CLI, out *bytes.Buffer) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("grammarbot"),
		kong.Vars{"version": "test"},
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Bind(&Global{Out: out}),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)

	return parser
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{args: []string{"check", "some text"}, command: "check <text>"},
		{args: []string{"check", "--stdin", "--format", "json"}, command: "check"},
		{args: []string{"ci", "validate"}, command: "ci validate"},
		{args: []string{"ci", "validate", "config.yml"}, command: "ci validate <file>"},
		{args: []string{"ci", "init", "--preset", "rust"}, command: "ci init"},
		{args: []string{"ci", "graph", "-o", "out.dot"}, command: "ci graph"},
	}

	for _, tt := range tests {
		cli := &CLI{}
		kctx, err := newParser(t, cli, &bytes.Buffer{}).Parse(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.command, kctx.Command())
	}
}

func TestParseDefaults(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli, &bytes.Buffer{}).Parse([]string{"ci", "init"})
	require.NoError(t, err)

	assert.Equal(t, "go", cli.CI.Init.Preset)
	assert.Equal(t, ".circleci/config.yml", cli.CI.Init.Output)
}

func TestParseInvalidEnum(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli, &bytes.Buffer{}).Parse([]string{"ci", "init", "--preset", "python"})
	require.Error(t, err)
}

func TestRunThroughKong(t *testing.T) {
	var out bytes.Buffer
	cli := &CLI{}
	kctx, err := newParser(t, cli, &out).Parse([]string{"ci", "init", "-o", "-", "--preset", "rust"})
	require.NoError(t, err)
	require.NoError(t, kctx.Run(cli))
	assert.Contains(t, out.String(), "image: circleci/rust:latest")
}
