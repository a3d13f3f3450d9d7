package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8080" || cfg.HexSize != 30 || cfg.AutoSave != 3*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Minimap != (Canvas{Width: 200, Height: 150}) {
		t.Errorf("minimap = %+v", cfg.Minimap)
	}
	if cfg.RouteTick != 500*time.Millisecond || cfg.MinimapInterval != 33*time.Millisecond {
		t.Errorf("intervals = %v %v", cfg.RouteTick, cfg.MinimapInterval)
	}
}

func TestFileAndEnvLayers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := `
listen: ":9000"
canvas:
  width: 640
  height: 480
route_tick: 250ms
cors:
  origins: ["https://maps.example"]
`
	if err := os.WriteFile(filepath.Join(dir, "hexworlds.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HEXWORLDS_DB_PATH=/tmp/from-dotenv.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HEXWORLDS_CANVAS_WIDTH", "800")
	t.Setenv("HEXWORLDS_LOG_LEVEL", "debug")
	t.Setenv("HEXWORLDS_ADMIN_KEY", "sesame")
	t.Cleanup(func() { os.Unsetenv("HEXWORLDS_DB_PATH") })

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		got, want any
	}{
		{"file listen", cfg.Listen, ":9000"},
		{"env beats file", cfg.Canvas.Width, 800},
		{"file height", cfg.Canvas.Height, 480},
		{"env admin key", cfg.AdminKey, "sesame"},
		{"file duration", cfg.RouteTick, 250 * time.Millisecond},
		{"env nested", cfg.Log.Level, "debug"},
		{"dotenv", cfg.DBPath, "/tmp/from-dotenv.db"},
		{"file list", cfg.CORS.Origins, []string{"https://maps.example"}},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestExplicitFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("missing.yaml"); err == nil {
		t.Error("missing explicit config accepted")
	}
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"hex size", func(c *Config) { c.HexSize = 0 }},
		{"canvas", func(c *Config) { c.Canvas.Height = -1 }},
		{"minimap", func(c *Config) { c.Minimap.Width = -5 }},
		{"interval", func(c *Config) { c.RouteTick = 0 }},
	}
	for _, tt := range tests {
		c := *base
		tt.modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: accepted", tt.name)
		}
	}
	if err := base.Validate(); err != nil {
		t.Errorf("defaults rejected: %v", err)
	}
}
