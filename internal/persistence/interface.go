package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when a record does not exist in a bucket
	ErrKeyNotFound = errors.New("key not found")
	// ErrTxClosed is returned when a committed or rolled back transaction is reused
	ErrTxClosed = errors.New("transaction already closed")
	// ErrClosed is returned by engines after Close
	ErrClosed = errors.New("engine closed")
)

// Record is a stored value together with its key
type Record struct {
	Key   string
	Value []byte
}

// Engine represents an embedded store backend. Records live in buckets, one
// bucket per object type.
type Engine interface {
	Get(bucket, key string) ([]byte, error)
	// List returns every record of a bucket ordered by key
	List(bucket string) ([]Record, error)
	Count(bucket string) (int, error)

	// BeginTx opens a write transaction. Only one may be open per engine at a time
	// for the memory and bolt engines; badger detects conflicts at commit.
	BeginTx() (Transaction, error)

	Close() error
	// Path is the on-disk location, empty for in-memory engines
	Path() string
	Describe() string
}

// Transaction represents a database transaction
type Transaction interface {
	Get(bucket, key string) ([]byte, error)
	Set(bucket, key string, value []byte) error
	// Delete fails with ErrKeyNotFound if the record is absent
	Delete(bucket, key string) error
	DeleteAll(bucket string) error
	Commit() error
	Rollback() error
}

// Update runs fn inside a write transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func Update(engine Engine, fn func(tx Transaction) error) error {
	tx, err := engine.BeginTx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Mode selects where the engine keeps its data
type Mode string

const (
	ModeMemory Mode = "inMemory"
	ModeDisk   Mode = "onDisk"
)

// Engine types
const (
	TypeMemory = "memory"
	TypeBadger = "badger"
	TypeBolt   = "bolt"
)

// Config holds persistence configuration
type Config struct {
	Type string // "memory", "badger", "bolt"
	Mode Mode
	// InMemoryIdentifier names an in-memory store; only used in ModeMemory
	InMemoryIdentifier string
	// Path is a directory for badger and a file for bolt; ignored in ModeMemory
	Path          string
	SyncWrites    bool
	ReadOnly      bool
	SchemaVersion uint64
}
