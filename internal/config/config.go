package config

import (
	"flag"
	"os"
	"path/filepath"
)

// Config holds the settings shared by the cwp command-line tools.
type Config struct {
	// DataDir is where the SQLite catalog and its migrations live.
	DataDir string
	// LogLevel controls slog verbosity (debug, info, warn, error).
	LogLevel string

	// BeatsPerMeasure is the CBT conversion's default measure size.
	BeatsPerMeasure int
	// Compress is parsed from -compress. None of the cwp commands reads
	// it, so it does not change what they write.
	Compress bool
}

// Parse parses command-line flags into a Config, falling back to
// environment variables and then hardcoded defaults.
func Parse() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "data directory for the song catalog database")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.IntVar(&cfg.BeatsPerMeasure, "beats-per-measure", 4, "beats per measure used by CBT conversion")
	flag.BoolVar(&cfg.Compress, "compress", false, "gzip-compress embedded blobs (not read by any cwp command)")

	flag.Parse()
	return cfg
}

func defaultDataDir() string {
	if dir := os.Getenv("CWP_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cwp"
	}
	return filepath.Join(home, ".cwp")
}
