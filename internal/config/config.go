package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Dimensions  int    `yaml:"dimensions,omitempty"`
	MaxRetries  int    `yaml:"max_retries,omitempty"`
}

// ONNXEmbedderConfig points at a local transformer model and its tokenizer.
type ONNXEmbedderConfig struct {
	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	LibraryPath   string `yaml:"library_path,omitempty"`
	Dimension     int    `yaml:"dimension,omitempty"`
	MaxTokens     int    `yaml:"max_tokens,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	ONNX   *ONNXEmbedderConfig   `yaml:"onnx,omitempty"`
	// Stopwords are added to the TF-IDF built-in list.
	Stopwords []string `yaml:"stopwords,omitempty"`
}

// AlignmentConfig holds the default alignment parameters.
type AlignmentConfig struct {
	WindowSize          int     `yaml:"window_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// TranscriptConfig configures transcript cleaning.
type TranscriptConfig struct {
	MinLength   int      `yaml:"min_length"`
	Fillers     []string `yaml:"fillers"`
	SkipMarkers []string `yaml:"skip_markers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	MaxUploadMB        int    `yaml:"max_upload_mb"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Alignment  AlignmentConfig  `yaml:"alignment"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
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
	// Keys absent from the file keep their default values.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/slidealign/config.yaml.
// If neither exists, it writes defaults to ~/.config/slidealign/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
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

// DefaultUserConfigPath returns ~/.config/slidealign/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "slidealign", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:  EmbedderConfig{Type: "tfidf"},
		Alignment: AlignmentConfig{WindowSize: 5, SimilarityThreshold: 0.60},
		Transcript: TranscriptConfig{
			MinLength:   5,
			Fillers:     []string{"um", "uh", "you know", "sort of", "kind of", "i mean"},
			SkipMarkers: []string{"Automatisch gegenereerde transcriptie"},
		},
		Server:     ServerConfig{Addr: "127.0.0.1:8000", MaxUploadMB: 50, RequestTimeoutSecs: 300},
		Store:      StoreConfig{Enabled: false, Path: "slidealign.db"},
		Log:        LogConfig{Level: "info", Format: "auto"},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 2},
	}
	return cfg
}

// Validate reports settings no run could use.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "tfidf", "openai":
	case "onnx":
		if c.Embedder.ONNX == nil || c.Embedder.ONNX.ModelPath == "" || c.Embedder.ONNX.TokenizerPath == "" {
			return errors.New("embedder.onnx needs model_path and tokenizer_path")
		}
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	if c.Alignment.WindowSize < 1 {
		return fmt.Errorf("alignment.window_size must be at least 1, got %d", c.Alignment.WindowSize)
	}
	if th := c.Alignment.SimilarityThreshold; math.IsNaN(th) || math.IsInf(th, 0) {
		return fmt.Errorf("alignment.similarity_threshold must be a finite number, got %v", th)
	}
	if c.Transcript.MinLength < 0 {
		return fmt.Errorf("transcript.min_length must not be negative, got %d", c.Transcript.MinLength)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return errors.New("store.path is required when the store is enabled")
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
}
