// Package main runs the cube draft server: it loads the cube list,
// deals or restores the draft, and serves the REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ramonehamilton/cube-drafter/internal/api"
	"github.com/ramonehamilton/cube-drafter/internal/app"
	"github.com/ramonehamilton/cube-drafter/internal/config"
	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/cubecobra"
	"github.com/ramonehamilton/cube-drafter/internal/imagecache"
	"github.com/ramonehamilton/cube-drafter/internal/scryfall"
	"github.com/ramonehamilton/cube-drafter/internal/storage"
)

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.cube-drafter/config.toml)")
	port       = flag.Int("port", 0, "Override the configured server port")
)

func main() {
	flag.Parse()

	path := *configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		path = filepath.Join(home, ".cube-drafter", "config.toml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, err := storage.Open(storage.DefaultConfig(cfg.DB.Path))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	feed := cubecobra.New(scryfall.NewClient())
	loadList := func(ctx context.Context) ([]cube.Record, error) {
		if cfg.Cube.File != "" {
			return feed.LoadFile(ctx, cfg.Cube.File)
		}
		return feed.FetchURL(ctx, cfg.Cube.URL)
	}

	imageOpts := imagecache.DefaultOptions()
	if cfg.Images.CacheDir != "" {
		imageOpts.CacheDir = cfg.Images.CacheDir
	}
	if cfg.Images.MaxEntries > 0 {
		imageOpts.MaxEntries = cfg.Images.MaxEntries
	}

	application := app.New(db, loadList, cfg.Cube.Seats, imageOpts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Load(ctx); err != nil {
		log.Fatalf("Failed to load draft: %v", err)
	}

	if cfg.Cube.WatchFile {
		if err := application.WatchFile(ctx, cfg.Cube.File); err != nil {
			log.Fatalf("Failed to watch cube list: %v", err)
		}
	}

	server := api.NewServer(&api.Config{Port: cfg.Server.Port}, application)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	fmt.Printf("Cube drafter running at http://localhost:%d\n", server.Port())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
