// Package config loads devboard configuration from an optional YAML
// file plus DEVBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	// DataPath is the backing CSV file holding the device table.
	DataPath string `yaml:"data_path"`
}

type AuthConfig struct {
	// AdminToken grants read+write; ViewerToken grants read-only.
	// An empty token disables that role.
	AdminToken  string `yaml:"admin_token"`
	ViewerToken string `yaml:"viewer_token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4200},
		Storage: StorageConfig{DataPath: "data/devices.csv"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path (if non-empty, the file must exist; if empty,
// ./devboard.yaml is used when present), then applies environment
// overrides. At least the admin token must end up set.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if path == "" {
		path = "devboard.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file is fine; defaults plus env cover it.
	default:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Auth.AdminToken == "" {
		return Config{}, errors.New("missing required config: admin token. Set auth.admin_token or DEVBOARD_ADMIN_TOKEN")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Storage.DataPath == "" {
		return Config{}, errors.New("missing required config: storage.data_path")
	}

	return cfg, nil
}

// KV is one entry of the flattened config listing produced by ShowAll.
type KV struct {
	Key   string
	Value string
}

// ShowAll flattens cfg for display. Tokens are redacted.
func ShowAll(cfg Config) []KV {
	return []KV{
		{"server.port", strconv.Itoa(cfg.Server.Port)},
		{"storage.data_path", cfg.Storage.DataPath},
		{"auth.admin_token", redact(cfg.Auth.AdminToken)},
		{"auth.viewer_token", redact(cfg.Auth.ViewerToken)},
		{"log.level", cfg.Log.Level},
	}
}

func redact(token string) string {
	if token == "" {
		return "(unset)"
	}
	return "********"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEVBOARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DEVBOARD_DATA_PATH"); v != "" {
		cfg.Storage.DataPath = v
	}
	if v := os.Getenv("DEVBOARD_ADMIN_TOKEN"); v != "" {
		cfg.Auth.AdminToken = v
	}
	if v := os.Getenv("DEVBOARD_VIEWER_TOKEN"); v != "" {
		cfg.Auth.ViewerToken = v
	}
	if v := os.Getenv("DEVBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
