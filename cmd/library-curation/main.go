// Command library-curation runs the liked tracks curation dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/jonjanego/spotify-library-curation/internal/cache"
	"github.com/jonjanego/spotify-library-curation/internal/config"
	"github.com/jonjanego/spotify-library-curation/internal/db"
	"github.com/jonjanego/spotify-library-curation/internal/web"
	webfs "github.com/jonjanego/spotify-library-curation/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env file: %w", err)
	}

	clientID := os.Getenv("SPOTIFY_ID")
	clientSecret := os.Getenv("SPOTIFY_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("please set SPOTIFY_ID and SPOTIFY_SECRET environment variables")
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	snapshots, err := openSnapshotCache(cfg)
	if err != nil {
		return fmt.Errorf("opening snapshot cache: %w", err)
	}

	sessions, cleanup, err := openSessionStore(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	addr := cfg.Server.Addr
	if addr == "" {
		addr = web.DefaultAddr
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         addr,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TemplatesFS:  templates,
		StaticFS:     static,
		Sessions:     sessions,
		Snapshots:    snapshots,
		App:          cfg,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.Server.OpenBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			url := fmt.Sprintf("http://%s", addr)
			if err := openBrowser(url); err != nil {
				logger.Warn("could not open browser", "url", url, "err", err)
			}
		}()
	}

	return server.Run()
}

// openSnapshotCache builds the library snapshot cache from config,
// falling back to the default path under the user config directory.
func openSnapshotCache(cfg *config.Config) (*cache.SnapshotCache, error) {
	ttl := cache.WithTTL(cfg.CacheTTL())
	if cfg.Cache.Path != "" {
		return cache.New(cfg.Cache.Path, ttl), nil
	}
	return cache.DefaultCache(ttl)
}

// openSessionStore picks the session backend: Postgres when
// DATABASE_URL is set, in-memory otherwise.
func openSessionStore(logger *log.Logger) (web.SessionManager, func(), error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Info("using in-memory sessions, set DATABASE_URL to persist logins")
		return web.NewSessionStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	if purged, err := database.Sessions().DeleteExpired(ctx); err != nil {
		logger.Warn("could not purge expired sessions", "err", err)
	} else if purged > 0 {
		logger.Info("purged expired sessions", "count", purged)
	}

	logger.Info("using database-backed sessions")
	return web.NewDBSessionStore(database), database.Close, nil
}

// openBrowser opens the default system browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	return nil
}
