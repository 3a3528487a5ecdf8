package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/neogan74/embeddb/internal/logger"
	"go.etcd.io/bbolt"
)

// BoltEngine implements Engine using bbolt. Each object type maps to a bucket,
// created on first write.
type BoltEngine struct {
	db   *bbolt.DB
	log  logger.Logger
	path string
}

// NewBoltEngine opens (or creates) the bbolt file at path
func NewBoltEngine(path string, log logger.Logger) (*BoltEngine, error) {
	if path == "" {
		return nil, errors.New("bolt engine requires a file path")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt at %s: %w", path, err)
	}

	log.Debug("bbolt persistence engine initialized", logger.String("path", path))

	return &BoltEngine{db: db, log: log, path: path}, nil
}

func (b *BoltEngine) Get(bucket, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		value, err = boltGet(tx, bucket, key)
		return err
	})
	return value, mapBoltErr(err)
}

func boltGet(tx *bbolt.Tx, bucket, key string) ([]byte, error) {
	bkt := tx.Bucket([]byte(bucket))
	if bkt == nil {
		return nil, ErrKeyNotFound
	}
	data := bkt.Get([]byte(key))
	if data == nil {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *BoltEngine) List(bucket string) ([]Record, error) {
	var records []Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			records = append(records, Record{Key: string(k), Value: append([]byte(nil), v...)})
			return nil
		})
	})
	return records, mapBoltErr(err)
}

func (b *BoltEngine) Count(bucket string) (int, error) {
	count := 0
	err := b.db.View(func(tx *bbolt.Tx) error {
		if bkt := tx.Bucket([]byte(bucket)); bkt != nil {
			count = bkt.Stats().KeyN
		}
		return nil
	})
	return count, mapBoltErr(err)
}

func (b *BoltEngine) BeginTx() (Transaction, error) {
	tx, err := b.db.Begin(true)
	if err != nil {
		return nil, mapBoltErr(err)
	}
	return &boltTx{tx: tx}, nil
}

func (b *BoltEngine) Close() error {
	return b.db.Close()
}

func (b *BoltEngine) Path() string {
	return b.path
}

func (b *BoltEngine) Describe() string {
	return fmt.Sprintf("bolt engine {file: %q, readOnly: false, schemaVersion: 0}", b.path)
}

func mapBoltErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// boltTx implements Transaction on a writable bbolt transaction
type boltTx struct {
	tx   *bbolt.Tx
	done bool
}

func (t *boltTx) Get(bucket, key string) ([]byte, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	return boltGet(t.tx, bucket, key)
}

func (t *boltTx) Set(bucket, key string, value []byte) error {
	if t.done {
		return ErrTxClosed
	}
	bkt, err := t.tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("failed to create/get bucket %s: %w", bucket, err)
	}
	return bkt.Put([]byte(key), value)
}

func (t *boltTx) Delete(bucket, key string) error {
	if t.done {
		return ErrTxClosed
	}
	bkt := t.tx.Bucket([]byte(bucket))
	if bkt == nil || bkt.Get([]byte(key)) == nil {
		return ErrKeyNotFound
	}
	return bkt.Delete([]byte(key))
}

func (t *boltTx) DeleteAll(bucket string) error {
	if t.done {
		return ErrTxClosed
	}
	err := t.tx.DeleteBucket([]byte(bucket))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}
	return err
}

func (t *boltTx) Commit() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return t.tx.Commit()
}

func (t *boltTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}
