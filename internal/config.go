package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"augments/internal/evict"
)

// Analysis providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Artifacts ArtifactsConfig   `yaml:"artifacts"`
	Cache     CacheConfig       `yaml:"cache"`
	Analysis  AnalysisConfig    `yaml:"analysis"`
	TTS       TTSConfig         `yaml:"tts"`
	YouTube   YouTubeConfig     `yaml:"youtube"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Artifacts.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if err := c.TTS.Validate(); err != nil {
		return err
	}
	return c.YouTube.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// ArtifactsConfig holds the artifact tree location.
type ArtifactsConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the artifacts configuration.
func (c *ArtifactsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// CacheConfig holds the cache index database and staleness policy.
//
// MaxAge bounds how old a cached artifact may be before a lookup treats it
// as a miss; it also serves as the default for `artifacts cleanup`. Prune
// enables the filesystem watcher that drops index rows for externally
// deleted files.
type CacheConfig struct {
	Path   string `yaml:"path"`
	MaxAge string `yaml:"max_age"`
	Prune  bool   `yaml:"prune"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	if c.MaxAge != "" {
		if _, err := evict.ParseMaxAge(c.MaxAge); err != nil {
			return fmt.Errorf("cache: max_age: %w", err)
		}
	}
	return nil
}

// AnalysisConfig selects the LLM provider for pattern analysis.
type AnalysisConfig struct {
	Provider      string       `yaml:"provider"`
	RatePerSecond float64      `yaml:"rate_per_second"`
	Ollama        OllamaConfig `yaml:"ollama"`
	OpenAI        OpenAIConfig `yaml:"openai"`
}

// Validate validates the analysis configuration.
func (c *AnalysisConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderOllama, ProviderOpenAI)),
		validation.Field(&c.RatePerSecond, validation.Required, validation.Min(0.0), validation.Max(100.0)),
	); err != nil {
		return err
	}
	if c.Provider == ProviderOpenAI && c.OpenAI.APIKey == "" {
		return fmt.Errorf("analysis: provider is %q but openai.api_key is empty", ProviderOpenAI)
	}
	return c.Ollama.Validate()
}

// OllamaConfig holds the local Ollama endpoint and model.
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// Validate validates the Ollama configuration.
func (c *OllamaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// OpenAIConfig holds OpenAI credentials. A non-empty key also enables the
// insight-enhancement pass.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// TTSConfig holds text-to-speech provider configuration.
type TTSConfig struct {
	GoogleAPIKey string   `yaml:"google_api_key"`
	VoiceTypes   []string `yaml:"voice_types"`
	Language     string   `yaml:"language"`
}

// Validate validates the TTS configuration.
func (c *TTSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.VoiceTypes, validation.Each(validation.In("standard", "premium", "studio"))),
		validation.Field(&c.Language, validation.Required),
	)
}

// YouTubeConfig holds transcript and metadata acquisition configuration.
// APIKey is optional; metadata falls back to yt-dlp without it.
type YouTubeConfig struct {
	APIKey    string `yaml:"api_key"`
	Language  string `yaml:"language"`
	YtdlpPath string `yaml:"ytdlp_path"`
}

// Validate validates the YouTube configuration.
func (c *YouTubeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Language, validation.Required),
	)
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".augments"
	}
	return filepath.Join(home, ".config", "augments")
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	dir := DefaultConfigDir()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Artifacts: ArtifactsConfig{
			Root: filepath.Join(dir, "artifacts"),
		},
		Cache: CacheConfig{
			Path:   filepath.Join(dir, "cache.db"),
			MaxAge: "7d",
		},
		Analysis: AnalysisConfig{
			Provider:      ProviderOllama,
			RatePerSecond: 1,
			Ollama: OllamaConfig{
				URL:   "http://localhost:11434",
				Model: "llama3.2:latest",
			},
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
		},
		TTS: TTSConfig{
			VoiceTypes: []string{"standard"},
			Language:   "en",
		},
		YouTube: YouTubeConfig{
			Language: "en",
		},
	}
}
