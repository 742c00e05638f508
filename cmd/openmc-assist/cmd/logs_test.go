package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogsCmd_TailsFile(t *testing.T) {
	// Given: a log file with an info and an error entry
	path := filepath.Join(t.TempDir(), "assist.log")
	writeTestFile(t, path, `{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"ingest_started"}
{"time":"2026-01-02T10:00:01Z","level":"ERROR","msg":"store failed","collection":"openmc_embeddings"}
`)

	// When: viewing errors only
	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"logs", "--file", path, "--level", "error"})
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	require.NoError(t, rootCmd.Execute())

	// Then: only the error is printed, uncolored
	assert.Equal(t, "10:00:01.000 ERROR store failed collection=openmc_embeddings\n", out.String())
}

func TestLogsCmd_MissingFile(t *testing.T) {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"logs", "--file", filepath.Join(t.TempDir(), "none.log")})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file not found")
}

func TestLogsCmd_InvalidPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assist.log")
	writeTestFile(t, path, "")

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"logs", "--file", path, "--filter", "("})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
