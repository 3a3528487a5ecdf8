package persistence

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/neogan74/embeddb/internal/logger"
)

const objectPrefix = "obj:"

// BadgerEngine implements Engine using BadgerDB
type BadgerEngine struct {
	db   *badger.DB
	log  logger.Logger
	path string
	mode Mode

	syncWrites bool
	stopGC     chan struct{}
	closeOnce  sync.Once

	// writeMu is held by the open write transaction so writers queue
	// instead of failing with badger.ErrConflict at commit
	writeMu sync.Mutex
}

// NewBadgerEngine creates a new BadgerDB persistence engine. In ModeMemory
// nothing touches the filesystem.
func NewBadgerEngine(cfg Config, log logger.Logger) (*BadgerEngine, error) {
	var opts badger.Options

	if cfg.Mode == ModeMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger engine requires a data directory")
		}
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.ValueLogFileSize = 64 << 20 // 64MB value log files
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = &badgerLogger{log: log.Named("badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	engine := &BadgerEngine{
		db:         db,
		log:        log,
		mode:       cfg.Mode,
		syncWrites: cfg.SyncWrites,
		stopGC:     make(chan struct{}),
	}
	if cfg.Mode != ModeMemory {
		engine.path = cfg.Path
		go engine.runGarbageCollection(5 * time.Minute)
	}

	log.Debug("BadgerDB persistence engine initialized",
		logger.String("mode", string(cfg.Mode)),
		logger.String("data_dir", engine.path),
		logger.Bool("sync_writes", cfg.SyncWrites))

	return engine, nil
}

func (b *BadgerEngine) runGarbageCollection(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				b.log.Warn("BadgerDB garbage collection failed", logger.Error(err))
			}
		case <-b.stopGC:
			return
		}
	}
}

func objectKey(bucket, key string) []byte {
	return []byte(objectPrefix + bucket + "\x00" + key)
}

func bucketPrefix(bucket string) []byte {
	return []byte(objectPrefix + bucket + "\x00")
}

func (b *BadgerEngine) Get(bucket, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = getValue(txn, bucket, key)
		return err
	})
	return value, mapBadgerErr(err)
}

func getValue(txn *badger.Txn, bucket, key string) ([]byte, error) {
	item, err := txn.Get(objectKey(bucket, key))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (b *BadgerEngine) List(bucket string) ([]Record, error) {
	var records []Record
	prefix := bucketPrefix(bucket)

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			records = append(records, Record{
				Key:   strings.TrimPrefix(string(item.Key()), string(prefix)),
				Value: value,
			})
		}
		return nil
	})
	return records, mapBadgerErr(err)
}

func (b *BadgerEngine) Count(bucket string) (int, error) {
	count := 0
	prefix := bucketPrefix(bucket)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, mapBadgerErr(err)
}

func (b *BadgerEngine) BeginTx() (Transaction, error) {
	b.writeMu.Lock()
	if b.db.IsClosed() {
		b.writeMu.Unlock()
		return nil, ErrClosed
	}
	return &badgerTx{engine: b, txn: b.db.NewTransaction(true)}, nil
}

func (b *BadgerEngine) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopGC)
		err = b.db.Close()
	})
	return err
}

func (b *BadgerEngine) Path() string {
	return b.path
}

func (b *BadgerEngine) Describe() string {
	if b.mode == ModeMemory {
		return "badger engine {inMemory: true, readOnly: false, schemaVersion: 0}"
	}
	return fmt.Sprintf("badger engine {dir: %q, syncWrites: %t, readOnly: false, schemaVersion: 0}",
		b.path, b.syncWrites)
}

func mapBadgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrKeyNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return ErrClosed
	default:
		return err
	}
}

// badgerTx implements Transaction for BadgerDB
type badgerTx struct {
	engine *BadgerEngine
	txn    *badger.Txn
	done   bool
}

func (tx *badgerTx) Get(bucket, key string) ([]byte, error) {
	if tx.done {
		return nil, ErrTxClosed
	}
	value, err := getValue(tx.txn, bucket, key)
	return value, mapBadgerErr(err)
}

func (tx *badgerTx) Set(bucket, key string, value []byte) error {
	if tx.done {
		return ErrTxClosed
	}
	return tx.txn.Set(objectKey(bucket, key), value)
}

func (tx *badgerTx) Delete(bucket, key string) error {
	if _, err := tx.Get(bucket, key); err != nil {
		return err
	}
	return tx.txn.Delete(objectKey(bucket, key))
}

func (tx *badgerTx) DeleteAll(bucket string) error {
	if tx.done {
		return ErrTxClosed
	}

	prefix := bucketPrefix(bucket)
	var keys [][]byte

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := tx.txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := tx.txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerTx) Commit() error {
	if tx.done {
		return ErrTxClosed
	}
	defer tx.finish()
	return mapBadgerErr(tx.txn.Commit())
}

func (tx *badgerTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.txn.Discard()
	tx.finish()
	return nil
}

func (tx *badgerTx) finish() {
	tx.done = true
	tx.engine.writeMu.Unlock()
}

// badgerLogger routes badger's internal logging through our logger
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
