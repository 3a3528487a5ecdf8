package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/neogan74/embeddb/database"
	"github.com/neogan74/embeddb/internal/config"
	"github.com/neogan74/embeddb/internal/logger"
	"github.com/neogan74/embeddb/internal/metrics"
	"github.com/neogan74/embeddb/internal/telemetry"
)

const version = "0.1.0"

type options struct {
	importFile string
	single     bool
	deleteAll  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.importFile, "import", "", "JSON file with people to ingest before the demo")
	flag.BoolVar(&opts.single, "single", false, "treat the import file as a single object")
	flag.BoolVar(&opts.deleteAll, "delete-all", false, "delete all people before importing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl := logger.Build(logger.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	defer func() { _ = zl.Sync() }()
	appLogger := logger.FromZap(zl)
	logger.SetDefault(appLogger)

	metrics.BuildInfo.WithLabelValues(version, "go").Set(1)

	tp, err := telemetry.InitTracing(context.Background(), telemetry.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		SamplingRatio:  cfg.Tracing.SamplingRatio,
		InsecureConn:   cfg.Tracing.InsecureConn,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Warn("Tracer shutdown failed", logger.Error(err))
		}
	}()

	appLogger.Info("Starting embeddb demo",
		logger.String("version", version),
		logger.String("name", cfg.Database.Name),
		logger.String("storage_mode", string(cfg.Database.StorageMode)),
		logger.String("verbosity", cfg.Database.Verbosity.String()))

	db := database.New(database.WithLogger(zl), database.WithTracerProvider(tp.Provider()))
	if err := run(db, cfg.Database, opts, os.Stdout); err != nil {
		appLogger.Error("Demo failed", logger.Error(err))
		_ = db.Close()
		os.Exit(1)
	}
	if err := db.Close(); err != nil {
		appLogger.Warn("Failed to close database", logger.Error(err))
	}
}

// run configures db, optionally ingests a JSON file and then walks through
// save, get and delete of a single person, printing what it sees to out.
func run(db *database.Database, cfg database.Configuration, opts options, out io.Writer) error {
	if err := db.Configure(cfg); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	if opts.importFile != "" {
		doc, err := os.ReadFile(opts.importFile)
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}
		err = database.SaveJSON[Person](db, doc, database.JSONSaveOptions{
			DeleteAll: opts.deleteAll,
			Single:    opts.single,
		})
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	people, err := database.All[Person](db)
	if err != nil {
		return err
	}
	if err := printPeople(out, people); err != nil {
		return err
	}

	ann := &Person{ID: 1, Name: "Ann"}
	if err := db.Save(ann); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	got, err := database.Get[Person](db, ann.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	fmt.Fprintf(out, "saved %s\n", got)

	if err := db.Delete(got); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if _, err := database.Get[Person](db, ann.ID); !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("expected person %d to be gone, got %v", ann.ID, err)
	}
	fmt.Fprintf(out, "deleted person %d\n", ann.ID)

	return printPeople(out, people)
}

func printPeople(out io.Writer, people *database.Results[Person]) error {
	all, err := people.All()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	fmt.Fprintf(out, "%d people stored\n", len(all))
	for _, p := range all {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}
