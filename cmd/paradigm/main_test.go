package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var examplePath = filepath.Join("..", "..", "examples", "reaching", "experiment.yaml")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "paradigm version "))
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", examplePath)
	require.NoError(t, err)
	assert.Contains(t, out, `"reaching" is valid`)
}

func TestValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "states: [A]\nblocks: [{name: b, repetitions: 1, factors: {x: [1, 2], y: [1]}}]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := execute(t, "validate", path)
	assert.ErrorIs(t, err, domain.ErrFactorLengthMismatch)
}

func TestSequence_JSON(t *testing.T) {
	out, err := execute(t, "sequence", examplePath, "--format", "json", "--seed", "11")
	require.NoError(t, err)

	var trials []domain.Trial
	require.NoError(t, json.Unmarshal([]byte(out), &trials))
	require.Len(t, trials, 28)
	assert.Equal(t, "practice", trials[0].BlockName)
	assert.Equal(t, 3, trials[27].Cycle)
}

func TestSequence_Table(t *testing.T) {
	out, err := execute(t, "sequence", examplePath, "--format", "table")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 29)
}

func TestSequence_Markdown(t *testing.T) {
	out, err := execute(t, "sequence", examplePath, "--format", "markdown")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# reaching"))
}

func TestSequence_UnknownFormat(t *testing.T) {
	_, err := execute(t, "sequence", examplePath, "--format", "xml")
	assert.Error(t, err)
}

func TestSimulate_FileStore(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "simulate", examplePath, "-q", "--store", "file", "--store-dir", dir, "--session", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cli: 28 trials saved")

	files, err := filepath.Glob(filepath.Join(dir, "cli", "trial-*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 28)

	out, err = execute(t, "simulate", examplePath, "-q", "--store", "file", "--store-dir", dir, "--session", "cli", "--resume")
	require.NoError(t, err)
	assert.Contains(t, out, "0 trials saved (28 resumed)")
}

func TestGraph_WithOverlay(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "trials.db")
	_, err := execute(t, "simulate", examplePath, "-q", "--store", "sqlite", "--store-dir", db, "--session", "g")
	require.NoError(t, err)

	out, err := execute(t, "graph", examplePath, "--store", "sqlite", "--store-dir", db, "--session", "g", "--trial", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "class BLOCKED visited;")
	assert.Contains(t, out, "class FEEDBACK current;")
}
