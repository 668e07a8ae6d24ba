package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/homedash/internal/config"
	"github.com/soltixdb/homedash/internal/loader"
	"github.com/soltixdb/homedash/internal/logging"
	"github.com/soltixdb/homedash/internal/queue"
	"github.com/soltixdb/homedash/internal/report"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	date := flag.String("date", "", "Report day in YYYY-MM-DD, today when empty")
	room := flag.String("room", "", "Room to summarize, report.room when empty")
	format := flag.String("format", "text", "Output format (text, json)")
	publish := flag.Bool("publish", false, "Publish the report on the configured queue subject")
	watch := flag.Bool("watch", false, "Print reports received on the configured queue subject")

	flag.Parse()

	if *format != "text" && *format != "json" {
		log.Fatalf("Error: invalid format '%s', expected text or json\n", *format)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error: failed to load config: %v\n", err)
	}
	if (*publish || *watch) && cfg.Queue.IsMemory() {
		log.Fatalf("Error: -publish and -watch need queue.type nats, redis or kafka\n")
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Error: failed to initialize logger: %v\n", err)
	}

	if *watch {
		if err := watchReports(cfg, logger, *format); err != nil {
			log.Fatalf("Error: %v\n", err)
		}
		return
	}

	opts, err := loader.OptionsFromConfig(cfg.Data, logger)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	store, err := loader.Load(context.Background(), cfg.Data.Path, opts)
	if err != nil {
		log.Fatalf("Error reading data: %v\n", err)
	}

	builder := report.NewBuilder(store, cfg.Report.Location(opts.Location), cfg.Report.Room)
	day, err := builder.ParseDate(*date)
	if err != nil {
		log.Fatalf("Error: %v\n", err)
	}
	if *room != "" && !builder.HasRoom(*room) {
		log.Fatalf("Error: room '%s' not found, known rooms: %v\n", *room, store.Schema().Rooms())
	}

	rep := builder.Build(day, *room)
	if err := printReport(rep, *format); err != nil {
		log.Fatalf("Error writing report: %v\n", err)
	}

	if *publish {
		publisher, err := queue.NewPublisher(cfg.Queue, cfg.Breaker, logger)
		if err != nil {
			log.Fatalf("Error connecting to queue: %v\n", err)
		}
		defer func() { _ = publisher.Close() }()

		data, err := json.Marshal(rep)
		if err != nil {
			log.Fatalf("Error encoding report: %v\n", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, cfg.Queue.Subject, data); err != nil {
			log.Fatalf("Error publishing report: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "Published report %s on %s\n", rep.ID, cfg.Queue.Subject)
	}
}

func printReport(rep *report.Daily, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	_, err := fmt.Printf("%s\n\n%s\n", rep.Subject(), rep.Text())
	return err
}

// watchReports prints every report delivered on the configured subject until
// interrupted
func watchReports(cfg *config.Config, logger *logging.Logger, format string) error {
	q, err := queue.NewQueue(cfg.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer func() { _ = q.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = q.Subscribe(ctx, cfg.Queue.Subject, func(_ context.Context, msg queue.Message) error {
		var rep report.Daily
		if err := json.Unmarshal(msg.Data, &rep); err != nil {
			// Not retryable; ack and move on
			logger.Warn("Skipping malformed report", "subject", msg.Subject, "error", err)
			return nil
		}
		return printReport(&rep, format)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", cfg.Queue.Subject, err)
	}

	fmt.Fprintf(os.Stderr, "Watching %s (%s), press Ctrl+C to stop\n", cfg.Queue.Subject, cfg.Queue.Type)
	<-ctx.Done()
	return nil
}
