// Command hexworlds serves the hex map editor: one session, auto-saved to
// SQLite, driven over HTTP and a websocket status feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/talgya/hexworlds/internal/api"
	"github.com/talgya/hexworlds/internal/config"
	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/engine"
	"github.com/talgya/hexworlds/internal/entropy"
	"github.com/talgya/hexworlds/internal/logging"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "config file (default hexworlds.yaml in . or ./config)")
	reset := pflag.Bool("reset", false, "discard the saved map and start from a starter map")
	pflag.Parse()

	if err := run(*configPath, *reset); err != nil {
		slog.Error("hexworlds stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, reset bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.Info("hexworlds starting", "listen", cfg.Listen, "db", cfg.DBPath, "hex_size", cfg.HexSize)

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Shared(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := checkSchema(db, reset); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Engine ────────────────────────────────────────────────────────
	// The loop outlives ctx so the final save can still run on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	eng := engine.NewEngine(nil)
	loopDone := make(chan error, 1)
	go func() { loopDone <- eng.Run(loopCtx) }()

	// ── Icons ─────────────────────────────────────────────────────────
	var icons *render.IconCache
	if cfg.Icons.Enabled {
		icons, err = render.NewIconCache(&http.Client{Timeout: cfg.Icons.Timeout}, iconURLs(cfg.Icons.BaseURL))
		if err != nil {
			return err
		}
		defer icons.Close()
	}

	// ── Session ───────────────────────────────────────────────────────
	notices := editor.NewNoticeBuffer(64, editor.LogNotifier{})
	sess := editor.New(eng, db, notices, icons, editor.Options{
		Width:            cfg.Canvas.Width,
		Height:           cfg.Canvas.Height,
		MinimapWidth:     cfg.Minimap.Width,
		MinimapHeight:    cfg.Minimap.Height,
		HexSize:          cfg.HexSize,
		AutoSaveInterval: cfg.AutoSave,
		RouteTick:        cfg.RouteTick,
		MinimapInterval:  cfg.MinimapInterval,
	})

	var restoreErr error
	if err := eng.Do(ctx, func() {
		sess.Start()
		restored, err := sess.Restore()
		if err != nil {
			restoreErr = err
			return
		}
		if !restored {
			seed := entropy.SeedOr(cfg.Seed)
			sess.LoadStarter(seed)
			slog.Info("no saved map found, loaded starter map", "seed", seed)
		}
	}); err != nil {
		return err
	}
	if restoreErr != nil {
		// An unreadable save leaves the map empty.
		slog.Error("restore failed, starting with an empty map", "error", restoreErr)
	}

	if icons != nil {
		go func() {
			if err := icons.Preload(ctx); err != nil {
				return
			}
			eng.Post(sess.Redraw)
			slog.Info("terrain icons loaded")
		}()
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("admin_key not set, edit endpoints are open")
	}
	srv := &api.Server{
		Session:   sess,
		Eng:       eng,
		DB:        db,
		Notices:   notices,
		Addr:      cfg.Listen,
		PublicURL: cfg.PublicURL,
		Origins:   cfg.CORS.Origins,
		AdminKey:  cfg.AdminKey,
		RateLimit: cfg.RateLimit,
	}
	fmt.Printf("API: %s/api/v1/status\n", strings.TrimSuffix(cfg.PublicURL, "/"))
	serveErr := srv.ListenAndServe(ctx)
	if serveErr != nil {
		slog.Error("api server failed", "error", serveErr)
	} else {
		slog.Info("received signal, shutting down")
	}

	// Final save on shutdown.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Do(saveCtx, sess.Stop); err != nil {
		slog.Error("final save failed", "error", err)
	}
	stopLoop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine loop ended with error", "error", err)
	}

	fmt.Println("hexworlds stopped. Map saved.")
	return serveErr
}

// checkSchema records the world file version the saved map was written
// with and clears the saved map on reset.
func checkSchema(db *persistence.DB, reset bool) error {
	if reset {
		if err := db.ClearMap(); err != nil {
			return fmt.Errorf("reset saved map: %w", err)
		}
		slog.Info("saved map discarded")
	}
	prev, err := db.GetMeta(schemaKey)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case prev != document.SchemaVersion:
		slog.Warn("saved map uses another schema version", "saved", prev, "current", document.SchemaVersion)
	}
	return db.SaveMeta(schemaKey, document.SchemaVersion)
}

const schemaKey = "schema_version"

// iconURLs maps terrains to BaseURL/<terrain>.png. An empty base keeps the
// palette URLs.
func iconURLs(base string) render.IconURLFunc {
	if base == "" {
		return nil
	}
	base = strings.TrimSuffix(base, "/")
	return func(t world.Terrain) string {
		return base + "/" + string(t) + ".png"
	}
}
