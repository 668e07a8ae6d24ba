package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/soltixdb/homedash/internal/aggregation"
	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/models"
	"github.com/soltixdb/homedash/internal/readings"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	dataPath := flag.String("data", "", "CSV or XLSX file, data.path when empty")
	start := flag.String("start", "", "Range start (RFC3339 or YYYY-MM-DD)")
	end := flag.String("end", "", "Range end (RFC3339 or YYYY-MM-DD, a date covers the whole day)")
	rooms := flag.String("rooms", "", "Comma separated rooms, all when empty")
	metrics := flag.String("metrics", "", "Comma separated metrics (temperature, humidity, energy)")
	granularity := flag.String("granularity", "daily", "Bucket size (daily, weekly, monthly, yearly)")
	detail := flag.Bool("detail", false, "Include per-bucket min and max")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error: failed to load config: %v\n", err)
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}

	opts, err := loader.OptionsFromConfig(cfg.Data, logging.NewWithWriter(os.Stderr, zerolog.WarnLevel))
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	store, err := loader.Load(context.Background(), cfg.Data.Path, opts)
	if err != nil {
		log.Fatalf("Error reading data: %v\n", err)
	}

	req := aggregation.Request{
		Rooms:  models.SplitList(*rooms),
		Detail: *detail,
	}
	if req.Start, err = models.ParseTime(*start, opts.Location, false); err != nil {
		log.Fatalf("Error: invalid start '%s'\n", *start)
	}
	if req.End, err = models.ParseTime(*end, opts.Location, true); err != nil {
		log.Fatalf("Error: invalid end '%s'\n", *end)
	}
	if req.Granularity, err = aggregation.ParseGranularity(*granularity); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	for _, name := range models.SplitList(*metrics) {
		m, err := readings.ParseMetric(strings.TrimSpace(name))
		if err != nil {
			log.Fatalf("Error: %v\n", err)
		}
		req.Metrics = append(req.Metrics, m)
	}

	result, err := aggregation.Compute(store, req)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Error writing result: %v\n", err)
	}
}
