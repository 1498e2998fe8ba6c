// Package model defines the data structures used throughout the AetherFlow application.
package model

import "time"

// Config is the root of the TOML configuration file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
	AI       AIConfig       `toml:"ai"`
	Viewport ViewportConfig `toml:"viewport"`
	Layout   LayoutConfig   `toml:"layout"`
	Server   ServerConfig   `toml:"server"`
}

// StorageConfig selects the durable key-value slot.
type StorageConfig struct {
	Type             string        `toml:"type"` // "sqlite", "file" or "memory"
	Dir              string        `toml:"dir"`
	File             string        `toml:"file"`
	SlotKey          string        `toml:"slot_key"`
	AutosaveInterval time.Duration `toml:"autosave_interval"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Folder     string `toml:"folder"`
	CommandLog string `toml:"command_log"`
	ErrorLog   string `toml:"error_log"`
	InfoLog    string `toml:"info_log"`
	Level      string `toml:"level"`
}

// AIConfig configures the generative text backend. An empty provider or a
// missing API key for a hosted provider leaves the client in local mode.
type AIConfig struct {
	Provider      string        `toml:"provider"`
	Model         string        `toml:"model"`
	BaseURL       string        `toml:"base_url"`
	APIKey        string        `toml:"api_key"`
	Timeout       time.Duration `toml:"timeout"`
	MaxAttempts   int           `toml:"max_attempts"`
	MaxConcurrent int           `toml:"max_concurrent"`
	Temperature   float64       `toml:"temperature"`
}

// ViewportConfig bounds zoom and sets wheel behaviour.
type ViewportConfig struct {
	MinZoom       float64       `toml:"min_zoom"`
	MaxZoom       float64       `toml:"max_zoom"`
	ZoomStep      float64       `toml:"zoom_step"`
	WheelThrottle time.Duration `toml:"wheel_throttle"`
}

// LayoutConfig picks how expanded children are positioned.
type LayoutConfig struct {
	Strategy string `toml:"strategy"` // "fanout" or "radial"
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
}
