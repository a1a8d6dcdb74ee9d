// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Repository struct {
		Path string `json:"path" yaml:"path"`
		Git  string `json:"git" yaml:"git"` // "" = look up on PATH
	} `json:"repository" yaml:"repository"`

	Linker struct {
		Workers   int    `json:"workers" yaml:"workers"`
		OnFailure string `json:"on_failure" yaml:"on_failure"` // abort, collect
	} `json:"linker" yaml:"linker"`

	Cache struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Size    int    `json:"size" yaml:"size"`
		Path    string `json:"path" yaml:"path"` // badger dir; "" = memory only
	} `json:"cache" yaml:"cache"`

	Server struct {
		Host string `json:"host" yaml:"host"`
		Port int    `json:"port" yaml:"port"`
	} `json:"server" yaml:"server"`

	Environment string `json:"environment" yaml:"environment"` // development, production
	LogLevel    string `json:"log_level" yaml:"log_level"`     // debug, info, warn, error
}

func Default() *Config {
	var cfg Config
	cfg.Repository.Path = "."
	cfg.Linker.Workers = 1
	cfg.Linker.OnFailure = "abort"
	cfg.Cache.Enabled = true
	cfg.Cache.Size = 4096
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Environment = "development"
	cfg.LogLevel = "info"
	return &cfg
}

// Path returns the config file for the environment named by SZZ_ENV.
func Path() string {
	env := os.Getenv("SZZ_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads path over Default(). Files ending in .yaml or .yml are YAML,
// everything else JSON.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		if err := json.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// LoadOrDefault loads path, or the SZZ_ENV file when path is empty. A missing
// environment file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(Path())
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if c.Linker.Workers < 1 {
		return fmt.Errorf("linker.workers must be at least 1, got %d", c.Linker.Workers)
	}
	switch c.Linker.OnFailure {
	case "", "abort", "collect":
	default:
		return fmt.Errorf("linker.on_failure must be abort or collect, got %q", c.Linker.OnFailure)
	}
	if c.Cache.Enabled && c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be positive when the cache is enabled, got %d", c.Cache.Size)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}
