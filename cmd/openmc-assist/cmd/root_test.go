package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/openmc-assist/pkg/version"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	// Given: the root command
	rootCmd := NewRootCmd()

	// When: collecting subcommand names
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	// Then: every pipeline command is present
	for _, want := range []string{"ingest", "retrieve", "ask", "status", "serve", "config", "logs", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	rootCmd := NewRootCmd()

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("debug"))
	dir := rootCmd.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, dir)
	assert.Equal(t, ".", dir.DefValue)
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "full",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "openmc-assist "+version.Version)
				assert.Contains(t, out, "commit:")
			},
		},
		{
			name: "short",
			args: []string{"version", "--short"},
			check: func(t *testing.T, out string) {
				assert.Equal(t, version.Version+"\n", out)
			},
		},
		{
			name: "json",
			args: []string{"version", "--json"},
			check: func(t *testing.T, out string) {
				var info version.BuildInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, version.Version, info.Version)
				assert.NotEmpty(t, info.GoVersion)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootCmd := NewRootCmd()
			rootCmd.SetArgs(tt.args)
			out := &bytes.Buffer{}
			rootCmd.SetOut(out)

			require.NoError(t, rootCmd.Execute())
			tt.check(t, out.String())
		})
	}
}
