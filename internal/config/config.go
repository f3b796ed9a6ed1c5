package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Backend     BackendConfig     `json:"backend"`
	Send        SendConfig        `json:"send"`
	Annotations AnnotationsConfig `json:"annotations"`
	Output      OutputConfig      `json:"output"`
}

// BackendConfig selects and configures the analysis backend
type BackendConfig struct {
	Kind           string `json:"kind"` // remote | ollama | llamacpp
	URL            string `json:"url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SendConfig controls how the sketch is encoded before upload
type SendConfig struct {
	Format  string `json:"format"`  // jpg | png
	MaxDim  int    `json:"max_dim"` // long side in pixels, 0 = original
	Quality int    `json:"quality"`
}

// AnnotationsConfig selects which annotation family the backend emits
type AnnotationsConfig struct {
	Protocol string `json:"protocol"` // markup | highlight
}

// OutputConfig holds configuration for the annotated output image
type OutputConfig struct {
	Dir      string `json:"dir"`
	Format   string `json:"format"` // jpg | png | webp
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:           "remote",
			URL:            "http://localhost:8000",
			Model:          "openbmb/minicpm-v4.5",
			TimeoutSeconds: 120,
		},
		Send: SendConfig{
			Format:  "jpg",
			MaxDim:  1536,
			Quality: 85,
		},
		Annotations: AnnotationsConfig{
			Protocol: "markup",
		},
		Output: OutputConfig{
			Dir:      "./out",
			Format:   "png",
			Quality:  92,
			Lossless: false,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case "remote", "ollama", "llamacpp":
	default:
		return fmt.Errorf("backend.kind must be remote, ollama, or llamacpp")
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url cannot be empty")
	}

	if c.Backend.TimeoutSeconds < 1 {
		return fmt.Errorf("backend.timeout_seconds must be positive")
	}

	if c.Send.Quality < 1 || c.Send.Quality > 100 {
		return fmt.Errorf("send.quality must be between 1 and 100")
	}

	if c.Send.MaxDim < 0 {
		return fmt.Errorf("send.max_dim cannot be negative")
	}

	switch c.Annotations.Protocol {
	case "markup", "highlight":
	default:
		return fmt.Errorf("annotations.protocol must be markup or highlight")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "sketch-annotator", "config.json")
}
