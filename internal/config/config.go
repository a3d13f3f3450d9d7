// Package config loads hexworlds settings: built-in defaults, then an
// optional hexworlds.yaml, then HEXWORLDS_* environment variables (a .env
// file in the working directory is loaded first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HEXWORLDS_LISTEN or
// HEXWORLDS_CANVAS_WIDTH.
const EnvPrefix = "HEXWORLDS"

type Config struct {
	Listen    string `mapstructure:"listen"`
	PublicURL string `mapstructure:"public_url"` // base for share links
	DBPath    string `mapstructure:"db_path"`
	Seed      int64  `mapstructure:"seed"` // starter map seed; 0 picks one

	// AdminKey, when set, is required as a bearer token on edit routes.
	AdminKey string `mapstructure:"admin_key"`

	HexSize float64 `mapstructure:"hex_size"`
	Canvas  Canvas  `mapstructure:"canvas"`
	Minimap Canvas  `mapstructure:"minimap"`

	AutoSave        time.Duration `mapstructure:"autosave_interval"`
	RouteTick       time.Duration `mapstructure:"route_tick"`
	MinimapInterval time.Duration `mapstructure:"minimap_interval"`

	Log   Log   `mapstructure:"log"`
	CORS  CORS  `mapstructure:"cors"`
	Icons Icons `mapstructure:"icons"`

	// RateLimit is the per-IP allowance for imports and shares per minute.
	RateLimit int `mapstructure:"rate_limit"`
}

type Canvas struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

// Icons controls terrain icon fetching. With BaseURL set, icons are
// fetched from BaseURL/<terrain>.png instead of the palette URLs.
type Icons struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("db_path", "data/hexworlds.db")
	v.SetDefault("seed", 0)
	v.SetDefault("admin_key", "")
	v.SetDefault("hex_size", 30.0)
	v.SetDefault("canvas.width", 1280)
	v.SetDefault("canvas.height", 800)
	v.SetDefault("minimap.width", 200)
	v.SetDefault("minimap.height", 150)
	v.SetDefault("autosave_interval", 3*time.Second)
	v.SetDefault("route_tick", 500*time.Millisecond)
	v.SetDefault("minimap_interval", 33*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("cors.origins", []string{"http://localhost:8080"})
	v.SetDefault("icons.enabled", true)
	v.SetDefault("icons.base_url", "")
	v.SetDefault("icons.timeout", 10*time.Second)
	v.SetDefault("rate_limit", 30)
}

// Load reads the configuration. path names an explicit config file; when
// empty, hexworlds.yaml is looked up in the working directory and ./config
// and skipped if absent.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hexworlds")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the editor cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Listen == "":
		return errors.New("config: listen address is empty")
	case c.HexSize <= 0:
		return fmt.Errorf("config: hex_size %g must be positive", c.HexSize)
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("config: canvas %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	case c.Minimap.Width < 0 || c.Minimap.Height < 0:
		return fmt.Errorf("config: minimap %dx%d must not be negative", c.Minimap.Width, c.Minimap.Height)
	case c.AutoSave <= 0 || c.RouteTick <= 0 || c.MinimapInterval <= 0:
		return errors.New("config: intervals must be positive")
	}
	return nil
}
