package main

import (
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/cartomix/cwp/internal/beat"
	"github.com/cartomix/cwp/internal/cbt"
	"github.com/cartomix/cwp/internal/chart"
	"github.com/cartomix/cwp/internal/config"
)

// cwpconvert converts a .cwpc chart file to a CBT JSON document ({info,
// notes}) on stdout, or the reverse with -decode, reading the source from
// stdin.
func main() {
	decode := flag.Bool("decode", false, "convert CBT JSON on stdin back into a .cwpc chart on stdout")
	cfg := config.Parse()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("failed to read stdin", "error", err)
		os.Exit(1)
	}

	if *decode {
		if err := cbtJSONToChart(cfg.BeatsPerMeasure, input, os.Stdout); err != nil {
			logger.Error("failed to convert CBT JSON to chart", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := chartToCbtJSON(cfg.BeatsPerMeasure, input, os.Stdout); err != nil {
		logger.Error("failed to convert chart to CBT JSON", "error", err)
		os.Exit(1)
	}
}

func chartToCbtJSON(beatsPerMeasure int, input []byte, out io.Writer) error {
	c, err := chart.Decode(beat.NewReader(input))
	if err != nil {
		return err
	}
	doc, err := cbt.ToCbt(c, beatsPerMeasure)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(doc)
}

func cbtJSONToChart(beatsPerMeasure int, input []byte, out io.Writer) error {
	var doc cbt.Document
	if err := json.Unmarshal(input, &doc); err != nil {
		return err
	}
	c, err := cbt.FromCbt(&doc, beatsPerMeasure)
	if err != nil {
		return err
	}
	w := beat.NewWriter(c.EncodedLength())
	if err := c.Encode(w); err != nil {
		return err
	}
	_, err = out.Write(w.Bytes())
	return err
}
