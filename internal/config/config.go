// Package config loads openmc-assist configuration from defaults, the user
// config file, the project config file and OPENMC_ASSIST_* environment
// variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Index backends accepted by store.index.
const (
	IndexLinear  = "linear"
	IndexHNSW    = "hnsw"
	IndexChromem = "chromem"
)

// Provider names accepted by embeddings.provider and generation.provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderStatic = "static"
	ProviderOpenAI = "openai"
)

// ProjectConfigName is the project-level config file name.
const ProjectConfigName = ".openmc-assist.yaml"

// Config represents the complete openmc-assist configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version" toml:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths" toml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking" toml:"chunking"`
	Store      StoreConfig      `yaml:"store" json:"store" toml:"store"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval" toml:"retrieval"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings" toml:"embeddings"`
	Generation GenerationConfig `yaml:"generation" json:"generation" toml:"generation"`
	Gemini     GeminiConfig     `yaml:"gemini" json:"gemini" toml:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai" json:"openai" toml:"openai"`
	Server     ServerConfig     `yaml:"server" json:"server" toml:"server"`
}

// PathsConfig configures the source trees that are ingested.
type PathsConfig struct {
	// Docs is the documentation root (markup files).
	Docs string `yaml:"docs" json:"docs" toml:"docs"`
	// Examples is the example-scripts root. Empty disables example ingestion.
	Examples string `yaml:"examples" json:"examples" toml:"examples"`
	// MaxDepth bounds directory traversal relative to a root.
	MaxDepth          int      `yaml:"max_depth" json:"max_depth" toml:"max_depth"`
	DocExtensions     []string `yaml:"doc_extensions" json:"doc_extensions" toml:"doc_extensions"`
	ExampleExtensions []string `yaml:"example_extensions" json:"example_extensions" toml:"example_extensions"`
}

// ChunkingConfig configures parsing and chunking.
type ChunkingConfig struct {
	// ChunkSize is the soft upper bound of a chunk, in characters.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`
	// IncludeParagraphs retains plain paragraphs as content items.
	IncludeParagraphs bool `yaml:"include_paragraphs" json:"include_paragraphs" toml:"include_paragraphs"`
	// ExamplesSection is the section recorded for example-script chunks.
	ExamplesSection string `yaml:"examples_section" json:"examples_section" toml:"examples_section"`
}

// StoreConfig configures the embedding store.
type StoreConfig struct {
	// Path is the storage directory holding the database and lock files.
	Path       string `yaml:"path" json:"path" toml:"path"`
	Collection string `yaml:"collection" json:"collection" toml:"collection"`
	// Index selects the query-time index: linear, hnsw or chromem.
	Index string `yaml:"index" json:"index" toml:"index"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k" json:"top_k" toml:"top_k"`
	HistoryTurns int `yaml:"history_turns" json:"history_turns" toml:"history_turns"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider" toml:"provider"`
	Model      string `yaml:"model" json:"model" toml:"model"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host" toml:"ollama_host"`
	// Dimensions applies to the static provider only.
	Dimensions int `yaml:"dimensions" json:"dimensions" toml:"dimensions"`
	// CacheSize is the number of query embeddings kept in memory. 0 disables the cache.
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`
	// RequestsPerSecond throttles embedding calls during ingestion. 0 is unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" toml:"requests_per_second"`
}

// GenerationConfig configures the language model.
type GenerationConfig struct {
	Provider    string  `yaml:"provider" json:"provider" toml:"provider"`
	Model       string  `yaml:"model" json:"model" toml:"model"`
	OllamaHost  string  `yaml:"ollama_host" json:"ollama_host" toml:"ollama_host"`
	Temperature float64 `yaml:"temperature" json:"temperature" toml:"temperature"`
}

// GeminiConfig configures access to the hosted Gemini API.
type GeminiConfig struct {
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env" toml:"api_key_env"`
}

// OpenAIConfig configures access to the OpenAI API or a compatible server.
type OpenAIConfig struct {
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env" toml:"api_key_env"`
	// BaseURL overrides the API endpoint, e.g. for a local compatible server.
	BaseURL string `yaml:"base_url" json:"base_url" toml:"base_url"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport" toml:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level" toml:"log_level"`
}

// NewConfig creates a new Config with defaults matching the reference
// ingestion scripts: 500-character chunks, top 5 passages, 5 history turns.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Docs:              "docs/source",
			Examples:          "",
			MaxDepth:          2,
			DocExtensions:     []string{".rst"},
			ExampleExtensions: []string{".py"},
		},
		Chunking: ChunkingConfig{
			ChunkSize:         500,
			IncludeParagraphs: false,
			ExamplesSection:   "Python OpenMC examples",
		},
		Store: StoreConfig{
			Path:       ".openmc-assist",
			Collection: "openmc_embeddings",
			Index:      IndexLinear,
		},
		Retrieval: RetrievalConfig{
			TopK:         5,
			HistoryTurns: 5,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   ProviderGemini,
			Model:      "text-embedding-004",
			OllamaHost: "",
			Dimensions: 256,
			CacheSize:  256,
		},
		Generation: GenerationConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-1.5-flash",
			OllamaHost:  "",
			Temperature: 0,
		},
		Gemini: GeminiConfig{
			APIKeyEnv: "GEMINI_API_KEY",
		},
		OpenAI: OpenAIConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/openmc-assist/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/openmc-assist/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "openmc-assist", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "openmc-assist", "config.yaml")
	}
	return filepath.Join(home, ".config", "openmc-assist", "config.yaml")
}

// loadUserConfig returns nil, nil when there is no user config file.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return &cfg, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/openmc-assist/config.yaml)
//  3. Project config (.openmc-assist.yaml in dir)
//  4. Environment variables (OPENMC_ASSIST_*)
//
// Relative store and source paths are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.resolvePaths(dir)
	return cfg, nil
}

// projectConfigNames are tried in order; the first one present wins.
var projectConfigNames = []string{ProjectConfigName, ".openmc-assist.yml", ".openmc-assist.toml"}

// loadFromFile merges the first project config file found in dir.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}
		read := readYAML
		if filepath.Ext(name) == ".toml" {
			read = readTOML
		}
		var parsed Config
		if err := read(path, &parsed); err != nil {
			return err
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func readTOML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
// Booleans can only be switched on this way; use the env var to switch off.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Paths
	if other.Paths.Docs != "" {
		c.Paths.Docs = other.Paths.Docs
	}
	if other.Paths.Examples != "" {
		c.Paths.Examples = other.Paths.Examples
	}
	if other.Paths.MaxDepth != 0 {
		c.Paths.MaxDepth = other.Paths.MaxDepth
	}
	if len(other.Paths.DocExtensions) > 0 {
		c.Paths.DocExtensions = other.Paths.DocExtensions
	}
	if len(other.Paths.ExampleExtensions) > 0 {
		c.Paths.ExampleExtensions = other.Paths.ExampleExtensions
	}

	// Chunking
	if other.Chunking.ChunkSize != 0 {
		c.Chunking.ChunkSize = other.Chunking.ChunkSize
	}
	if other.Chunking.IncludeParagraphs {
		c.Chunking.IncludeParagraphs = true
	}
	if other.Chunking.ExamplesSection != "" {
		c.Chunking.ExamplesSection = other.Chunking.ExamplesSection
	}

	// Store
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.Collection != "" {
		c.Store.Collection = other.Store.Collection
	}
	if other.Store.Index != "" {
		c.Store.Index = other.Store.Index
	}

	// Retrieval
	if other.Retrieval.TopK != 0 {
		c.Retrieval.TopK = other.Retrieval.TopK
	}
	if other.Retrieval.HistoryTurns != 0 {
		c.Retrieval.HistoryTurns = other.Retrieval.HistoryTurns
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.RequestsPerSecond != 0 {
		c.Embeddings.RequestsPerSecond = other.Embeddings.RequestsPerSecond
	}

	// Generation
	if other.Generation.Provider != "" {
		c.Generation.Provider = other.Generation.Provider
	}
	if other.Generation.Model != "" {
		c.Generation.Model = other.Generation.Model
	}
	if other.Generation.OllamaHost != "" {
		c.Generation.OllamaHost = other.Generation.OllamaHost
	}
	if other.Generation.Temperature != 0 {
		c.Generation.Temperature = other.Generation.Temperature
	}

	if other.Gemini.APIKeyEnv != "" {
		c.Gemini.APIKeyEnv = other.Gemini.APIKeyEnv
	}
	if other.OpenAI.APIKeyEnv != "" {
		c.OpenAI.APIKeyEnv = other.OpenAI.APIKeyEnv
	}
	if other.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = other.OpenAI.BaseURL
	}

	// Server
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies OPENMC_ASSIST_* environment variable overrides.
// Malformed numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENMC_ASSIST_DOCS"); v != "" {
		c.Paths.Docs = v
	}
	if v := os.Getenv("OPENMC_ASSIST_EXAMPLES"); v != "" {
		c.Paths.Examples = v
	}
	if v := os.Getenv("OPENMC_ASSIST_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chunking.ChunkSize = n
		}
	}
	if v := os.Getenv("OPENMC_ASSIST_INCLUDE_PARAGRAPHS"); v != "" {
		c.Chunking.IncludeParagraphs = parseBool(v)
	}
	if v := os.Getenv("OPENMC_ASSIST_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("OPENMC_ASSIST_COLLECTION"); v != "" {
		c.Store.Collection = v
	}
	if v := os.Getenv("OPENMC_ASSIST_INDEX"); v != "" {
		c.Store.Index = v
	}
	if v := os.Getenv("OPENMC_ASSIST_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retrieval.TopK = n
		}
	}
	if v := os.Getenv("OPENMC_ASSIST_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("OPENMC_ASSIST_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("OPENMC_ASSIST_GENERATION_PROVIDER"); v != "" {
		c.Generation.Provider = v
	}
	if v := os.Getenv("OPENMC_ASSIST_GENERATION_MODEL"); v != "" {
		c.Generation.Model = v
	}
	// One host for both providers; set per-section host in YAML to split them.
	if v := os.Getenv("OPENMC_ASSIST_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
		c.Generation.OllamaHost = v
	}
	if v := os.Getenv("OPENMC_ASSIST_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// resolvePaths makes relative paths absolute against dir.
func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Paths.Docs = resolve(c.Paths.Docs)
	c.Paths.Examples = resolve(c.Paths.Examples)
	c.Store.Path = resolve(c.Store.Path)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize < 1 {
		return fmt.Errorf("chunking.chunk_size must be at least 1, got %d", c.Chunking.ChunkSize)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.HistoryTurns < 0 {
		return fmt.Errorf("retrieval.history_turns must be non-negative, got %d", c.Retrieval.HistoryTurns)
	}
	if c.Paths.MaxDepth < 0 {
		return fmt.Errorf("paths.max_depth must be non-negative, got %d", c.Paths.MaxDepth)
	}
	if strings.TrimSpace(c.Store.Collection) == "" {
		return fmt.Errorf("store.collection must not be empty")
	}

	switch strings.ToLower(c.Store.Index) {
	case IndexLinear, IndexHNSW, IndexChromem:
	default:
		return fmt.Errorf("store.index must be 'linear', 'hnsw' or 'chromem', got %s", c.Store.Index)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case ProviderGemini, ProviderOllama, ProviderOpenAI, ProviderStatic:
	default:
		return fmt.Errorf("embeddings.provider must be 'gemini', 'ollama', 'openai' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.CacheSize < 0 {
		return fmt.Errorf("embeddings.cache_size must be non-negative, got %d", c.Embeddings.CacheSize)
	}
	if c.Embeddings.RequestsPerSecond < 0 {
		return fmt.Errorf("embeddings.requests_per_second must be non-negative, got %g", c.Embeddings.RequestsPerSecond)
	}

	switch strings.ToLower(c.Generation.Provider) {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("generation.provider must be 'gemini', 'ollama' or 'openai', got %s", c.Generation.Provider)
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// DatabasePath is the SQLite file holding every collection.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Store.Path, "embeddings.db")
}

// ChromemPath is the directory of the chromem mirror index.
func (c *Config) ChromemPath() string {
	return filepath.Join(c.Store.Path, "chromem")
}

// LockPath is the file lock that serializes ingestion runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Store.Path, "ingest.lock")
}

// GeminiAPIKey reads the Gemini API key from the configured variable,
// falling back to GOOGLE_API_KEY.
func (c *Config) GeminiAPIKey() string {
	if v := os.Getenv(c.Gemini.APIKeyEnv); v != "" {
		return v
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// OpenAIAPIKey reads the OpenAI API key from the configured variable.
func (c *Config) OpenAIAPIKey() string {
	return os.Getenv(c.OpenAI.APIKeyEnv)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
