// Package config loads the application configuration from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultCubeURL is the CubeCobra CSV export the drafter loads when no
// other source is configured.
const DefaultCubeURL = "https://cubecobra.com/cube/download/csv/5eae7a67a85ffb101d7fd244" +
	"?primary=Color%20Category&secondary=Types-Multicolor&tertiary=Mana%20Value" +
	"&quaternary=Alphabetical&showother=undefined"

// Config represents the application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cube   CubeConfig   `toml:"cube"`
	DB     DBConfig     `toml:"db"`
	Images ImagesConfig `toml:"images"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"` // Listen port
}

// CubeConfig contains cube list source settings.
type CubeConfig struct {
	URL       string `toml:"url"`        // CubeCobra CSV export URL
	File      string `toml:"file"`       // Local CSV path; takes precedence over URL
	WatchFile bool   `toml:"watch_file"` // Reload automatically when File changes
	Seats     int    `toml:"seats"`      // Seats dealt into a fresh draft
}

// DBConfig contains persistence settings.
type DBConfig struct {
	Path string `toml:"path"` // SQLite database path
}

// ImagesConfig contains image cache settings.
type ImagesConfig struct {
	CacheDir   string `toml:"cache_dir"`   // Card image download cache
	MaxEntries int    `toml:"max_entries"` // Composed images kept in memory
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".cube-drafter")

	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Cube: CubeConfig{
			URL:   DefaultCubeURL,
			Seats: 8,
		},
		DB: DBConfig{
			Path: filepath.Join(dataDir, "drafter.db"),
		},
		Images: ImagesConfig{
			CacheDir:   filepath.Join(dataDir, "image-cache"),
			MaxEntries: 15,
		},
	}
}

// Load loads the configuration from path. A missing file returns the
// defaults; a present file is parsed over them, so partial configs
// work.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cube.URL == "" && c.Cube.File == "" {
		return fmt.Errorf("a cube URL or file must be configured")
	}
	if c.Cube.WatchFile && c.Cube.File == "" {
		return fmt.Errorf("watch_file requires a cube file")
	}
	if c.Cube.Seats <= 0 {
		return fmt.Errorf("seat count must be positive: %d", c.Cube.Seats)
	}
	if c.Images.MaxEntries < 0 {
		return fmt.Errorf("image cache size cannot be negative: %d", c.Images.MaxEntries)
	}
	return nil
}
