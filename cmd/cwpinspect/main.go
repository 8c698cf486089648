package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/config"
	"github.com/cartomix/cwp/internal/musicfile"
)

// cwpinspect decodes a .cwpm or .cwpc file and logs a summary of its
// contents: a chart's charter/comments/note count, or a music file's
// name/artist/categories/keyword/chart list.
func main() {
	cfg := config.Parse()
	path := flag.Arg(0)

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

	if path == "" {
		logger.Error("usage: cwpinspect [flags] <file.cwpm|file.cwpc>")
		os.Exit(2)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read file", "path", path, "error", err)
		os.Exit(1)
	}

	if c, err := chart.Decode(beat.NewReader(raw)); err == nil {
		logChart(logger, path, c)
		return
	}

	m, err := musicfile.Decode(raw)
	if err != nil {
		logger.Error("file is neither a valid chart nor a valid music file", "path", path, "error", err)
		os.Exit(1)
	}
	logMusic(logger, path, m)
}

func logChart(logger *slog.Logger, path string, c *chart.Chart) {
	logger.Info("chart",
		"path", path,
		"charter", c.Charter,
		"comments", c.Comments,
		"offset", c.Offset,
		"initialBps", c.Bps.InitialBps,
		"bpsChanges", len(c.Bps.Changes),
		"initialSpeed", c.Speed.InitialSpeed,
		"speedChanges", len(c.Speed.Changes),
		"noteCount", len(c.Notes.Notes),
	)
}

func logMusic(logger *slog.Logger, path string, m *musicfile.Music) {
	logger.Info("music file",
		"path", path,
		"name", m.Name,
		"artist", m.Artist,
		"categories", m.Categories,
		"keywords", m.Keywords,
		"chartCount", m.Charts.Len(),
	)
	for _, ci := range m.Charts.All() {
		logger.Info("  chart",
			"difficultyName", ci.DifficultyName,
			"difficultyText", ci.DifficultyText,
			"difficulty", ci.Difficulty,
		)
	}
}
