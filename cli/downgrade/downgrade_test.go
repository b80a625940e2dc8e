package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const project = `name = "Example"
uuid = "7876af07-990d-54b4-ab0e-23690620f79a"

[deps]
JSON = "682c06a0-de6a-54ab-a142-c8b1cf79cde6"

[compat]
JSON = "0.21.3"
julia = "1.6"
`

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger.SetTestOutput(io.Discard)
	t.Cleanup(logger.UnsetTestOutput)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "verify", "bounds", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_GlobalFlagsReachSubcommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Project.toml"), []byte(project), 0o644))
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runRoot(t, "--config", configPath, "--output", "json", "--no-color", "bounds", "--dir", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"JSON": "0.21.3"}`, out)
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runRoot(t, "--config", configPath, "--output", "xml", "bounds", "--dir", t.TempDir())
	require.ErrorIs(t, err, pkgerrors.ErrInvalidOutputFormat)
}

func TestRootCmd_MissingProject(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runRoot(t, "--config", configPath, "verify", "--dir", t.TempDir())
	require.ErrorIs(t, err, pkgerrors.ErrProjectNotFound)
}
