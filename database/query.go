package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/neogan74/embeddb/internal/persistence"
)

// Get looks up the object of type T with the given primary key. It returns
// ErrUnavailable when no store is open and ErrNotFound when nothing matches.
func Get[T any, PT Model[T]](d *Database, key any) (obj *T, err error) {
	defer observe("get", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return nil, err
	}

	bucket := objectType[T, PT]()
	k := FormatKey(key)

	data, err := engine.Get(bucket, k)
	if err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			err = fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, k)
		} else {
			err = fmt.Errorf("failed to read %s/%s: %w", bucket, k, err)
		}
		d.debugError(err.Error())
		return nil, err
	}

	obj, err = decodeRecord[T](bucket, k, data)
	if err != nil {
		d.debugError(err.Error())
		return nil, err
	}
	return obj, nil
}

// All returns a live view of every stored object of type T
func All[T any, PT Model[T]](d *Database) (results *Results[T], err error) {
	defer observe("all", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return nil, err
	}

	return &Results[T]{
		engine: engine,
		bucket: objectType[T, PT](),
	}, nil
}

// Count returns the number of stored objects of type T
func Count[T any, PT Model[T]](d *Database) (count int, err error) {
	defer observe("count", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return 0, err
	}
	return engine.Count(objectType[T, PT]())
}

// Results is a live view over the objects of one type. Nothing is cached:
// every call reads the store, so writes made after All returned are visible.
// A Results stays bound to the store that was open when it was created and
// fails with persistence errors once that store is closed.
type Results[T any] struct {
	engine persistence.Engine
	bucket string
}

// Type is the object type this view covers
func (r *Results[T]) Type() string {
	return r.bucket
}

// Len returns the current number of objects
func (r *Results[T]) Len() (int, error) {
	return r.engine.Count(r.bucket)
}

// All decodes every object currently stored, ordered by primary key
func (r *Results[T]) All() ([]*T, error) {
	records, err := r.engine.List(r.bucket)
	if err != nil {
		return nil, err
	}

	objects := make([]*T, 0, len(records))
	for _, rec := range records {
		obj, err := decodeRecord[T](r.bucket, rec.Key, rec.Value)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// At returns the i-th object in primary key order
func (r *Results[T]) At(i int) (*T, error) {
	records, err := r.engine.List(r.bucket)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(records) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(records))
	}
	return decodeRecord[T](r.bucket, records[i].Key, records[i].Value)
}

// Each calls fn for every object in primary key order until fn returns false
func (r *Results[T]) Each(fn func(obj *T) bool) error {
	objects, err := r.All()
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if !fn(obj) {
			return nil
		}
	}
	return nil
}
