package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/kolkov/isoshare/internal/share/workload"
)

// errChecksFailed is returned when a stress report is not OK.
var errChecksFailed = errors.New("workload checks failed")

// stressCommand implements 'isoshare stress'.
//
// Flags override the config file, which overrides the defaults. The report
// is written to stdout even when a check fails.
func stressCommand(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger, ll *slog.LevelVar) error {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML workload file")
	counterWorkers := fs.Int("counter-workers", 0, "Goroutines incrementing the counter")
	increments := fs.Int("increments", 0, "Increments per counter worker")
	mapWriters := fs.Int("map-writers", 0, "Goroutines writing the map")
	keys := fs.Int("keys", 0, "Distinct keys per map writer")
	producers := fs.Int("producers", 0, "Queue producers")
	consumers := fs.Int("consumers", 0, "Queue consumers")
	items := fs.Int("items", 0, "Items per producer")
	rateFlag := fs.Float64("rate", 0, "Pushes per second per producer (0 = unlimited)")
	verbose := fs.Bool("v", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unknown arguments: %v", fs.Args())
	}
	if *verbose {
		ll.Set(slog.LevelDebug)
	}

	cfg := workload.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = workload.LoadConfigFile(*configPath); err != nil {
			return err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "counter-workers":
			cfg.Counter.Workers = *counterWorkers
		case "increments":
			cfg.Counter.Increments = *increments
		case "map-writers":
			cfg.Map.Writers = *mapWriters
		case "keys":
			cfg.Map.Keys = *keys
		case "producers":
			cfg.Queue.Producers = *producers
		case "consumers":
			cfg.Queue.Consumers = *consumers
		case "items":
			cfg.Queue.Items = *items
		case "rate":
			cfg.Queue.Rate = *rateFlag
		}
	})

	r, err := workload.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}
	out, err := r.YAML()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}
	if !r.OK {
		return errChecksFailed
	}
	return nil
}
