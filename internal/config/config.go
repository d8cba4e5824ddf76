package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const (
	DefaultBackendURL = "https://mind-api.beagleboard.org/api"
	DefaultCollection = "beagleboard"
)

// Config holds the user-level BeagleMind settings stored as JSON.
type Config struct {
	DefaultBackend     string              `json:"default_backend"`
	DefaultModel       string              `json:"default_model"`
	DefaultTemperature float64             `json:"default_temperature"`
	AvailableBackends  map[string][]string `json:"available_backends"`
	CollectionName     string              `json:"collection_name,omitempty"`
	RAGBackendURL      string              `json:"rag_backend_url,omitempty"`
}

// Load reads the config file, writing a default one on first run. A
// broken or unreadable file degrades to built-in defaults rather than
// failing startup.
func Load() *Config {
	configPath := Path()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		slog.Warn("failed to create config directory", "path", configPath, "error", err)
		return defaultConfig()
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		slog.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		return defaultConfig()
	}

	cfg.applyDefaults()
	return cfg
}

// Path returns the config file location. BEAGLEMIND_HOME overrides the
// default of the user's home directory.
func Path() string {
	configDir := os.Getenv("BEAGLEMIND_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".beaglemind", "config.json")
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".beaglemind", "config.json")
}

func (c *Config) IsValid() bool {
	return c.DefaultBackend != "" && c.DefaultModel != "" && len(c.AvailableBackends) > 0
}

// Backends returns the configured backend names in stable order.
func (c *Config) Backends() []string {
	names := make([]string, 0, len(c.AvailableBackends))
	for name := range c.AvailableBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns the configured model list for a backend.
func (c *Config) Models(backend string) []string {
	return c.AvailableBackends[backend]
}

func (c *Config) BackendURL() string {
	if url := os.Getenv("RAG_BACKEND_URL"); url != "" {
		return url
	}
	if c.RAGBackendURL != "" {
		return c.RAGBackendURL
	}
	return DefaultBackendURL
}

func (c *Config) Collection() string {
	if c.CollectionName != "" {
		return c.CollectionName
	}
	return DefaultCollection
}

func (c *Config) applyDefaults() {
	if c.DefaultTemperature == 0 {
		c.DefaultTemperature = 0.3
	}
	if c.CollectionName == "" {
		c.CollectionName = DefaultCollection
	}
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DefaultBackend:     "groq",
		DefaultModel:       "meta-llama/llama-3.1-70b-versatile",
		DefaultTemperature: 0.3,
		AvailableBackends: map[string][]string{
			"groq": {
				"meta-llama/llama-3.1-70b-versatile",
				"llama-3.3-70b-versatile",
			},
			"openai": {
				"gpt-4o",
				"gpt-4o-mini",
			},
			"ollama": {
				"qwen2.5:7b",
				"llama3.2:3b",
			},
		},
		CollectionName: DefaultCollection,
	}
}

func createDefaultConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()
	if err := saveConfig(cfg, configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func saveConfig(cfg *Config, configPath string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	return saveConfig(c, Path())
}
