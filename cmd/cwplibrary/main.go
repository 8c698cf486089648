package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/cartomix/cwp/internal/config"
	"github.com/cartomix/cwp/internal/library"
)

// cwplibrary scans a directory tree for .cwpm music files and updates the
// SQLite song catalog under the configured data directory.
func main() {
	force := flag.Bool("force", false, "re-index files even if already cataloged")
	cfg := config.Parse()
	root := flag.Arg(0)

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if root == "" {
		logger.Error("usage: cwplibrary [flags] <directory>")
		os.Exit(2)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	db, err := library.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	scanner := library.NewScanner(db, logger)
	progress := make(chan library.Progress, 64)

	go func() {
		for p := range progress {
			if p.Status == "error" {
				logger.Warn("scan error", "path", p.Path, "error", p.Error)
				continue
			}
			logger.Info("scanned", "path", p.Path, "status", p.Status, "new", p.IsNew)
		}
	}()

	if err := scanner.Scan(context.Background(), []string{root}, *force, progress); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
}
