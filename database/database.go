// Package database is a small façade over an embedded object store. A Database
// holds one store handle, opened by Configure, and offers typed reads, upserts,
// JSON ingestion and deletes. Every write runs in a single transaction that is
// either fully committed or discarded.
//
// Failures are returned to the caller and, depending on the configured
// Verbosity, also written to the error sink.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neogan74/embeddb/internal/logger"
	"github.com/neogan74/embeddb/internal/metrics"
	"github.com/neogan74/embeddb/internal/persistence"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/neogan74/embeddb/database"

// Database owns the connection to one embedded store. It is safe for
// concurrent use; Configure and Close wait for in-flight operations.
type Database struct {
	mu       sync.RWMutex
	config   *Configuration
	engine   persistence.Engine
	handleID string

	log    logger.Logger
	tracer trace.Tracer
}

// Option customises a Database
type Option func(*Database)

// WithLogger routes the debug sinks through l
func WithLogger(l *zap.Logger) Option {
	return func(d *Database) {
		d.log = logger.FromZap(l).Named("database")
	}
}

// WithTracerProvider sets the provider used for transaction spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Database) {
		d.tracer = tp.Tracer(tracerName)
	}
}

// New creates an unconfigured Database. Data operations fail with
// ErrUnavailable until Configure succeeds.
func New(opts ...Option) *Database {
	d := &Database{
		log:    logger.GetDefault().Named("database"),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configure stores cfg and opens a fresh store for it, closing the previous
// one. On failure the Database is left without a store.
func (d *Database) Configure(cfg Configuration) (err error) {
	cfg = cfg.withDefaults()
	defer func() {
		metrics.ConfigureTotal.WithLabelValues(string(cfg.StorageMode), metrics.StatusOf(err)).Inc()
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.config = &cfg
	d.closeLocked()

	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		d.debugError(err.Error())
		return err
	}

	engine, err := persistence.NewEngine(cfg.persistenceConfig(), d.engineLog())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOpen, err)
		d.debugError(err.Error(),
			logger.String("name", cfg.Name),
			logger.String("storage_mode", string(cfg.StorageMode)))
		return err
	}

	d.engine = engine
	d.handleID = uuid.NewString()
	metrics.OpenHandles.Inc()

	d.settings("database setup", logger.String("name", cfg.Name))
	d.settings(engine.Describe())
	if path := engine.Path(); path != "" {
		d.settings("path to store: " + path)
	}
	return nil
}

// closeLocked releases the current handle. d.mu must be held for writing.
func (d *Database) closeLocked() error {
	if d.engine == nil {
		return nil
	}

	err := d.engine.Close()
	if err != nil {
		d.debugError("failed to close store", logger.Error(err))
	}
	d.engine = nil
	d.handleID = ""
	metrics.OpenHandles.Dec()
	return err
}

// Close releases the store. Later operations fail with ErrUnavailable until
// Configure is called again.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

// Configuration returns the configuration last passed to Configure
func (d *Database) Configuration() (Configuration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.config == nil {
		return Configuration{}, false
	}
	return *d.config, true
}

// Available reports whether a store is open
func (d *Database) Available() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine != nil
}

// Path returns the on-disk location of the open store, or "" when the store is
// in memory or none is open.
func (d *Database) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.engine == nil {
		return ""
	}
	return d.engine.Path()
}

// handle returns the open engine. d.mu must be held.
func (d *Database) handle() (persistence.Engine, error) {
	if d.engine == nil {
		d.debugError(ErrUnavailable.Error())
		return nil, ErrUnavailable
	}
	return d.engine, nil
}

// Save upserts obj: an existing object with the same type and primary key is
// overwritten.
func (d *Database) Save(obj Object) (err error) {
	defer observe("save", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return err
	}

	rec, err := prepare(obj)
	if err != nil {
		d.debugError(err.Error())
		return err
	}

	err = d.update(engine, "save", []record{rec}, func(tx persistence.Transaction) error {
		d.debugMessage(rec.description, logger.String("type", rec.bucket), logger.String("key", rec.key))
		return tx.Set(rec.bucket, rec.key, rec.value)
	})
	if err == nil {
		assignKeys([]record{rec})
	}
	return err
}

// Delete removes obj from the store. Deleting an object that is not stored
// fails with an error matching both ErrTransaction and ErrNotFound.
func (d *Database) Delete(obj Object) (err error) {
	defer observe("delete", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return err
	}

	bucket, key, _, err := identify(obj, false)
	if err != nil {
		d.debugError(err.Error())
		return err
	}

	err = d.update(engine, "delete", nil, func(tx persistence.Transaction) error {
		d.debugMessage("delete "+bucket+" "+key, logger.String("type", bucket), logger.String("key", key))
		if err := tx.Delete(bucket, key); err != nil {
			if errors.Is(err, persistence.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
			}
			return err
		}
		return nil
	})
	if err == nil {
		metrics.ObjectsDeletedTotal.WithLabelValues(bucket).Inc()
	}
	return err
}

// update runs fn in one write transaction and records the outcome. written
// lists the records fn upserts, for metrics.
func (d *Database) update(engine persistence.Engine, op string, written []record, fn func(tx persistence.Transaction) error) error {
	_, span := d.tracer.Start(context.Background(), "embeddb."+op,
		trace.WithAttributes(
			attribute.String("db.system", "embeddb"),
			attribute.String("embeddb.engine", d.config.Engine),
			attribute.Int("embeddb.objects", len(written)),
		))
	defer span.End()

	err := persistence.Update(engine, fn)
	metrics.TransactionsTotal.WithLabelValues(d.config.Engine, metrics.StatusOf(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.debugError(op+" failed", logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrTransaction, op, err)
	}

	for _, rec := range written {
		metrics.ObjectsWrittenTotal.WithLabelValues(rec.bucket).Inc()
	}
	return nil
}

func observe(op string, start time.Time, err *error) {
	metrics.OperationsTotal.WithLabelValues(op, metrics.StatusOf(*err)).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func describeAll(records []record) string {
	parts := make([]string, len(records))
	for i, rec := range records {
		parts[i] = rec.description
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
