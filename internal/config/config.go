package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the casedex engine configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Tagger     TaggerConfig     `yaml:"tagger"`
	Graph      GraphConfig      `yaml:"graph"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds settings for the metrics/health listener.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds key-value store connection settings. The store backs
// the redis snapshot backend and the embedding cache; both are optional.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai (default) or fallback test provider name
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	MaxRetries int    `yaml:"max_retries"`
	Cache      bool   `yaml:"cache"` // requires database.addrs
}

// GenerationConfig holds text generation provider settings. An empty API key
// disables generation; the engine emits labeled placeholders instead.
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxAttempts int     `yaml:"max_attempts"`
	BackoffSec  float64 `yaml:"backoff_sec"`
	Temperature float32 `yaml:"temperature"`
}

// TaggerConfig holds lexical tagger service settings. An empty URL selects
// the built-in heuristic tagger.
type TaggerConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxRetries int    `yaml:"max_retries"`
}

// GraphConfig holds knowledge graph construction parameters.
type GraphConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ExplicitEdgeWeight  float64 `yaml:"explicit_edge_weight"`
	PageRankDamping     float64 `yaml:"pagerank_damping"`
	PageRankTolerance   float64 `yaml:"pagerank_tolerance"`
	PageRankMaxIter     int     `yaml:"pagerank_max_iterations"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	DefaultTopK  int `yaml:"default_top_k"`
	CategoryTopK int `yaml:"category_top_k"`
	ExampleTopK  int `yaml:"example_top_k"`
}

// SnapshotConfig holds snapshot persistence settings.
type SnapshotConfig struct {
	Backend string `yaml:"backend"` // file (default) or redis
	Path    string `yaml:"path"`    // file backend
	Key     string `yaml:"key"`     // redis backend
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 9090
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.MaxRetries <= 0 {
		c.Embedding.MaxRetries = 3
	}
	if c.Generation.MaxAttempts <= 0 {
		c.Generation.MaxAttempts = 3
	}
	if c.Generation.BackoffSec <= 0 {
		c.Generation.BackoffSec = 1
	}
	if c.Tagger.TimeoutSec <= 0 {
		c.Tagger.TimeoutSec = 10
	}
	if c.Tagger.MaxRetries <= 0 {
		c.Tagger.MaxRetries = 3
	}
	if c.Graph.SimilarityThreshold <= 0 {
		c.Graph.SimilarityThreshold = 0.4
	}
	if c.Graph.ExplicitEdgeWeight <= 0 {
		c.Graph.ExplicitEdgeWeight = 0.5
	}
	if c.Graph.PageRankDamping <= 0 {
		c.Graph.PageRankDamping = 0.85
	}
	if c.Graph.PageRankTolerance <= 0 {
		c.Graph.PageRankTolerance = 1e-6
	}
	if c.Graph.PageRankMaxIter <= 0 {
		c.Graph.PageRankMaxIter = 100
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 5
	}
	if c.Retrieval.CategoryTopK <= 0 {
		c.Retrieval.CategoryTopK = 3
	}
	if c.Retrieval.ExampleTopK <= 0 {
		c.Retrieval.ExampleTopK = 2
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "file"
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "casedex_corpus.json"
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = "casedex:corpus_snapshot"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Snapshot.Backend {
	case "file":
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("snapshot.backend is redis but database.addrs is empty")
		}
	default:
		return fmt.Errorf("snapshot.backend must be \"file\" or \"redis\", got %q", c.Snapshot.Backend)
	}
	if c.Embedding.Cache && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("embedding.cache requires database.addrs")
	}
	if c.Graph.SimilarityThreshold >= 1 {
		return fmt.Errorf("graph.similarity_threshold must be below 1, got %v", c.Graph.SimilarityThreshold)
	}
	if c.Graph.PageRankDamping >= 1 {
		return fmt.Errorf("graph.pagerank_damping must be below 1, got %v", c.Graph.PageRankDamping)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
