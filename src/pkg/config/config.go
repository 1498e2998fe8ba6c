// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"aetherflow/local-app/src/pkg/model"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "./data/config.toml"

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = DefaultPath
)

// Default returns the built-in configuration.
func Default() *model.Config {
	return &model.Config{
		Storage: model.StorageConfig{
			Type:             "sqlite",
			Dir:              "./data",
			File:             "aetherflow.db",
			SlotKey:          "aetherflow-map-data",
			AutosaveInterval: 30 * time.Second,
		},
		Log: model.LogConfig{
			Folder:     "./logs",
			CommandLog: "commands.log",
			ErrorLog:   "errors.log",
			InfoLog:    "info.log",
			Level:      "info",
		},
		AI: model.AIConfig{
			Provider:      "gemini",
			Model:         "gemini-2.0-flash-exp",
			Timeout:       60 * time.Second,
			MaxAttempts:   2,
			MaxConcurrent: 4,
			Temperature:   0.7,
		},
		Viewport: model.ViewportConfig{
			MinZoom:       0.1,
			MaxZoom:       3.0,
			ZoomStep:      0.1,
			WheelThrottle: 16 * time.Millisecond,
		},
		Layout: model.LayoutConfig{Strategy: "fanout"},
		Server: model.ServerConfig{Addr: ":8080"},
	}
}

// ConfigLoad loads the configuration from the TOML file at path, or from
// DefaultPath when path is empty. If the file doesn't exist, a default
// configuration is written there first.
func ConfigLoad(path string) error {
	if path != "" {
		configPath = path
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()

	// Check if the config file exists, if not create a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := ConfigSave(cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}

	currentConfig = cfg
	return nil
}

// ConfigSave saves the provided configuration to the TOML file.
func ConfigSave(cfg *model.Config) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// ConfigGet returns the current configuration.
func ConfigGet() *model.Config {
	if currentConfig == nil {
		return Default()
	}
	return currentConfig
}

// ConfigPath returns the path of the active configuration file.
func ConfigPath() string {
	return configPath
}

// Validate rejects configurations the application cannot run with.
func Validate(cfg *model.Config) error {
	switch cfg.Storage.Type {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if cfg.Storage.SlotKey == "" {
		return errors.New("storage slot_key must not be empty")
	}
	if cfg.Viewport.MinZoom <= 0 || cfg.Viewport.MaxZoom < cfg.Viewport.MinZoom {
		return fmt.Errorf("invalid zoom bounds [%v, %v]", cfg.Viewport.MinZoom, cfg.Viewport.MaxZoom)
	}
	switch cfg.Layout.Strategy {
	case "fanout", "radial":
	default:
		return fmt.Errorf("unsupported layout strategy: %s", cfg.Layout.Strategy)
	}
	return nil
}

// applyEnv overlays environment variables on the file configuration.
func applyEnv(cfg *model.Config) {
	if provider := os.Getenv("AETHERFLOW_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = strings.ToLower(provider)
	}
	if key := os.Getenv("AETHERFLOW_AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
		return
	}
	if cfg.AI.APIKey != "" {
		return
	}
	switch cfg.AI.Provider {
	case "gemini":
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	case "openai":
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
