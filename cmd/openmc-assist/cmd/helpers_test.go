package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const geometryRST = `Geometry
========

Cells
-----

.. note:: Cells are regions.
`

// testProject is a project directory whose store lives in a temp dir and
// whose embeddings come from the offline static provider.
type testProject struct {
	dir  string
	docs string
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("OPENMC_ASSIST_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("OPENMC_ASSIST_STORE_PATH", filepath.Join(dir, ".openmc-assist"))

	docs := filepath.Join(dir, "docs")
	writeTestFile(t, filepath.Join(docs, "usersguide", "geometry.rst"), geometryRST)
	return &testProject{dir: dir, docs: docs}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// run executes the CLI against the project and returns stdout.
func (p *testProject) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return p.runContext(t, context.Background(), args...)
}

func (p *testProject) runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(append([]string{"--config-dir", p.dir}, args...))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}
