package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PartitionConfig controls how source documents are split into content units.
type PartitionConfig struct {
	SentencesPerChunk int  `yaml:"sentences_per_chunk"`
	OverlapSentences  int  `yaml:"overlap_sentences"`
	PDFTextFallback   bool `yaml:"pdftotext_fallback"`
}

// OpenAIConfig holds connection details for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type       string        `yaml:"type"`
	MaxRetries int           `yaml:"max_retries"`
	OpenAI     *OpenAIConfig `yaml:"openai,omitempty"`
}

// LLMConfig configures the generative model used for answering questions.
// MaxRetries applies to answer generation only; table summaries never retry.
type LLMConfig struct {
	Type        string        `yaml:"type"`
	MaxRetries  int           `yaml:"max_retries"`
	Temperature float64       `yaml:"temperature"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// SummarizerConfig selects and configures the table summarizer.
type SummarizerConfig struct {
	Type              string  `yaml:"type"`
	MaxConcurrency    int     `yaml:"max_concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxSentences      int     `yaml:"max_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Path   string        `yaml:"path"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieverConfig configures query-time retrieval.
type RetrieverConfig struct {
	TopK            int  `yaml:"top_k"`
	KeywordFallback bool `yaml:"keyword_fallback"`
}

// UIConfig selects the interactive front end.
type UIConfig struct {
	Mode string `yaml:"mode"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Partition   PartitionConfig   `yaml:"partition"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	UI          UIConfig          `yaml:"ui"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports configuration mistakes that must stop the program at startup.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("embedder.openai section is required for the openai embedder")
		}
	case "tfidf":
	default:
		return fmt.Errorf("unknown embedder: %q", c.Embedder.Type)
	}
	switch c.LLM.Type {
	case "openai":
		if c.LLM.OpenAI == nil {
			return errors.New("llm.openai section is required for the openai model")
		}
	default:
		return fmt.Errorf("unknown llm: %q", c.LLM.Type)
	}
	switch c.Summarizer.Type {
	case "llm", "frequency":
	default:
		return fmt.Errorf("unknown summarizer: %q", c.Summarizer.Type)
	}
	switch c.VectorStore.Type {
	case "sqlite", "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil {
			return errors.New("vector_store.qdrant section is required for the qdrant store")
		}
	default:
		return fmt.Errorf("unknown vector store: %q", c.VectorStore.Type)
	}
	if c.VectorStore.Type != "memory" && c.VectorStore.Path == "" {
		return errors.New("vector_store.path must not be empty")
	}
	switch c.UI.Mode {
	case "line", "tui":
	default:
		return fmt.Errorf("unknown ui mode: %q", c.UI.Mode)
	}
	if c.Retriever.TopK < 1 {
		return fmt.Errorf("retriever.top_k must be at least 1, got %d", c.Retriever.TopK)
	}
	if c.Summarizer.MaxConcurrency < 1 {
		return fmt.Errorf("summarizer.max_concurrency must be at least 1, got %d", c.Summarizer.MaxConcurrency)
	}
	if c.Summarizer.RequestsPerSecond < 0 {
		return errors.New("summarizer.requests_per_second must not be negative")
	}
	if c.LLM.MaxRetries < 0 || c.Embedder.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Partition: PartitionConfig{SentencesPerChunk: 5, OverlapSentences: 1, PDFTextFallback: true},
		Embedder: EmbedderConfig{
			Type:   "openai",
			OpenAI: &OpenAIConfig{},
		},
		LLM: LLMConfig{
			Type:   "openai",
			OpenAI: &OpenAIConfig{Model: "gpt-4o-mini"},
		},
		Summarizer:  SummarizerConfig{Type: "llm", MaxConcurrency: 5, MaxSentences: 2},
		VectorStore: VectorStoreConfig{Type: "sqlite", Path: "./vector_store_advanced"},
		Retriever:   RetrieverConfig{TopK: 5, KeywordFallback: true},
		UI:          UIConfig{Mode: "line"},
		Log:         LogConfig{Level: "info", Pretty: true},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Partition.SentencesPerChunk == 0 {
		cfg.Partition.SentencesPerChunk = 5
	}
	if cfg.Summarizer.MaxConcurrency == 0 {
		cfg.Summarizer.MaxConcurrency = 5
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 2
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = "line"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	}
	if cfg.LLM.Type == "openai" && cfg.LLM.OpenAI != nil {
		applyOpenAIDefaults(cfg.LLM.OpenAI, "gpt-4o-mini", 120)
	}
	if cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "docqa"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string, timeoutSecs int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeoutSecs
	}
}
