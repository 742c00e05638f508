package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty temp dir.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: pipeline defaults are applied
	require.NotNil(t, cfg)
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.False(t, cfg.Chunking.IncludeParagraphs)
	assert.Equal(t, "Python OpenMC examples", cfg.Chunking.ExamplesSection)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 5, cfg.Retrieval.HistoryTurns)
	assert.Equal(t, "openmc_embeddings", cfg.Store.Collection)
	assert.Equal(t, IndexLinear, cfg.Store.Index)
	assert.Equal(t, 2, cfg.Paths.MaxDepth)
	assert.Equal(t, []string{".rst"}, cfg.Paths.DocExtensions)
	assert.Equal(t, []string{".py"}, cfg.Paths.ExampleExtensions)
	assert.Equal(t, "text-embedding-004", cfg.Embeddings.Model)
	assert.Equal(t, "gemini-1.5-flash", cfg.Generation.Model)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Gemini.APIKeyEnv)
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// Load precedence
// =============================================================================

func TestLoad_NoFiles_UsesDefaultsAndResolvesPaths(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".openmc-assist"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(dir, "docs", "source"), cfg.Paths.Docs)
	assert.Empty(t, cfg.Paths.Examples)
	assert.Equal(t, filepath.Join(dir, ".openmc-assist", "embeddings.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, ".openmc-assist", "chromem"), cfg.ChromemPath())
	assert.Equal(t, filepath.Join(dir, ".openmc-assist", "ingest.lock"), cfg.LockPath())
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), `
chunking:
  chunk_size: 800
  include_paragraphs: true
store:
  collection: reactor_docs
  index: hnsw
retrieval:
  top_k: 3
paths:
  examples: /abs/examples
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.True(t, cfg.Chunking.IncludeParagraphs)
	assert.Equal(t, "reactor_docs", cfg.Store.Collection)
	assert.Equal(t, IndexHNSW, cfg.Store.Index)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "/abs/examples", cfg.Paths.Examples)
	// Untouched values keep defaults
	assert.Equal(t, 5, cfg.Retrieval.HistoryTurns)
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".openmc-assist.yml"), "retrieval:\n  top_k: 9\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestLoad_UserConfigBelowProjectConfig(t *testing.T) {
	// Given: a user config and a project config that disagree
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "openmc-assist", "config.yaml"), `
embeddings:
  provider: ollama
  ollama_host: http://gpu-box:11434
retrieval:
  top_k: 7
`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "retrieval:\n  top_k: 4\n")

	// When: loading
	cfg, err := Load(dir)
	require.NoError(t, err)

	// Then: project wins where set, user config fills the rest
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, ProviderOllama, cfg.Embeddings.Provider)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embeddings.OllamaHost)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "chunking:\n  chunk_size: 800\n  include_paragraphs: true\n")

	t.Setenv("OPENMC_ASSIST_CHUNK_SIZE", "250")
	t.Setenv("OPENMC_ASSIST_INCLUDE_PARAGRAPHS", "false")
	t.Setenv("OPENMC_ASSIST_COLLECTION", "env_coll")
	t.Setenv("OPENMC_ASSIST_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("OPENMC_ASSIST_OLLAMA_HOST", "http://h:1")
	t.Setenv("OPENMC_ASSIST_TOP_K", "not-a-number")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Chunking.ChunkSize)
	assert.False(t, cfg.Chunking.IncludeParagraphs)
	assert.Equal(t, "env_coll", cfg.Store.Collection)
	assert.Equal(t, ProviderStatic, cfg.Embeddings.Provider)
	assert.Equal(t, "http://h:1", cfg.Embeddings.OllamaHost)
	assert.Equal(t, "http://h:1", cfg.Generation.OllamaHost)
	assert.Equal(t, 5, cfg.Retrieval.TopK, "malformed numbers are ignored")
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "chunking: [unterminated\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "store:\n  index: faiss\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.index")
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero chunk size", func(c *Config) { c.Chunking.ChunkSize = 0 }, "chunk_size"},
		{"zero top k", func(c *Config) { c.Retrieval.TopK = 0 }, "top_k"},
		{"negative history", func(c *Config) { c.Retrieval.HistoryTurns = -1 }, "history_turns"},
		{"negative depth", func(c *Config) { c.Paths.MaxDepth = -1 }, "max_depth"},
		{"empty collection", func(c *Config) { c.Store.Collection = " " }, "store.collection"},
		{"unknown embedder", func(c *Config) { c.Embeddings.Provider = "cohere" }, "embeddings.provider"},
		{"openai embedder", func(c *Config) { c.Embeddings.Provider = ProviderOpenAI }, ""},
		{"static generator", func(c *Config) { c.Generation.Provider = "static" }, "generation.provider"},
		{"negative cache", func(c *Config) { c.Embeddings.CacheSize = -1 }, "cache_size"},
		{"sse transport", func(c *Config) { c.Server.Transport = "sse" }, "transport"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }, "log_level"},
		{"chromem index", func(c *Config) { c.Store.Index = IndexChromem }, ""},
		{"zero history", func(c *Config) { c.Retrieval.HistoryTurns = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeminiAPIKey_FallsBackToGoogleKey(t *testing.T) {
	cfg := NewConfig()

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	assert.Equal(t, "google-key", cfg.GeminiAPIKey())

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	assert.Equal(t, "gemini-key", cfg.GeminiAPIKey())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg := NewConfig()
	cfg.Chunking.ChunkSize = 321
	cfg.Store.Index = IndexChromem
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectConfigName)))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 321, loaded.Chunking.ChunkSize)
	assert.Equal(t, IndexChromem, loaded.Store.Index)
}

func TestLoad_TOMLProjectConfig(t *testing.T) {
	// Given: only a TOML project file
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".openmc-assist.toml"), `
[chunking]
chunk_size = 700
include_paragraphs = true

[embeddings]
provider = "openai"
model = "text-embedding-3-small"
requests_per_second = 2.5

[openai]
base_url = "http://localhost:8080/v1/"
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: the TOML keys use the same names as the YAML ones
	require.NoError(t, err)
	assert.Equal(t, 700, cfg.Chunking.ChunkSize)
	assert.True(t, cfg.Chunking.IncludeParagraphs)
	assert.Equal(t, ProviderOpenAI, cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.InDelta(t, 2.5, cfg.Embeddings.RequestsPerSecond, 1e-9)
	assert.Equal(t, "http://localhost:8080/v1/", cfg.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.OpenAI.APIKeyEnv)
}

func TestLoad_YAMLWinsOverTOML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "retrieval:\n  top_k: 3\n")
	writeFile(t, filepath.Join(dir, ".openmc-assist.toml"), "[retrieval]\ntop_k = 8\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestLoad_MalformedTOML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".openmc-assist.toml"), "[chunking\nchunk_size = ")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestOpenAIAPIKey(t *testing.T) {
	cfg := NewConfig()
	cfg.OpenAI.APIKeyEnv = "OPENMC_ASSIST_TEST_OPENAI_KEY"
	t.Setenv("OPENMC_ASSIST_TEST_OPENAI_KEY", "sk-test")

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey())
}

func TestValidate_RequestsPerSecond(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.RequestsPerSecond = -1
	require.Error(t, cfg.Validate())

	cfg.Embeddings.RequestsPerSecond = 0
	require.NoError(t, cfg.Validate())
}
