package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "constitution.yaml"

// Config holds all configuration for the constitution assistant.
type Config struct {
	Document  DocumentConfig  `yaml:"document"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Index     IndexConfig     `yaml:"index"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DocumentConfig points at the single source document.
type DocumentConfig struct {
	Path          string `yaml:"path"`
	Watch         bool   `yaml:"watch"`
	LicenseKeyEnv string `yaml:"license_key_env"` // UniDoc metered key, needed for PDFs
}

// ChunkerConfig holds passage splitting configuration.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds embedding service configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "ollama", "gemini"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "ollama", "gemini"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	Type       string `yaml:"type"` // "chroma", "bolt", "memory"
	ChromaURL  string `yaml:"chroma_url"`
	Collection string `yaml:"collection"`
	BoltPath   string `yaml:"bolt_path"`
}

// RetrieveConfig holds semantic retrieval configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// IndexConfig holds ingestion configuration.
type IndexConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			Path:          filepath.Join("data", "akorda.kz-Constitution of the Republic of Kazakhstan.pdf"),
			LicenseKeyEnv: "UNIDOC_LICENSE_KEY",
		},
		Chunker: ChunkerConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "all-minilm",
			BaseURL:     "http://localhost:11434",
			APIKeyEnv:   "GEMINI_API_KEY",
			BatchSize:   512,
			TimeoutSecs: 120,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama2",
			BaseURL:     "http://localhost:11434",
			APIKeyEnv:   "GEMINI_API_KEY",
			TimeoutSecs: 300,
		},
		Store: StoreConfig{
			Type:       "chroma",
			ChromaURL:  "http://localhost:8000",
			Collection: "constitution",
			BoltPath:   filepath.Join("chroma_db", "constitution.db"),
		},
		Retrieve: RetrieveConfig{
			TopK: 4,
		},
		Index: IndexConfig{
			BatchSize: 100,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// A .env file next to it is read first; variables already set win.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads .env and constitution.yaml from dir.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// applyEnv lets deployment environments override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("CONSTITUTION_PDF"); v != "" {
		c.Document.Path = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		c.Store.ChromaURL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Embedding.BaseURL = v
		c.LLM.BaseURL = v
	}
}

// Validate rejects configurations the assistant cannot run with.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "ollama", "gemini":
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "ollama", "gemini":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	switch c.Store.Type {
	case "chroma", "bolt", "memory":
	default:
		return fmt.Errorf("unknown store type: %q", c.Store.Type)
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker.chunk_overlap must be in [0, chunk_size), got %d", c.Chunker.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be positive, got %d", c.Index.BatchSize)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Timeout converts a seconds setting into a duration.
func Timeout(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
