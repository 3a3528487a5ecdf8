package database

import (
	"fmt"
	"time"

	"github.com/neogan74/embeddb/internal/logger"
	"github.com/neogan74/embeddb/internal/persistence"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// SaveAll upserts objs, in order, in one transaction. Every object is encoded
// before the transaction opens, so a bad object means nothing is written.
func SaveAll[T Object](d *Database, objs []T) (err error) {
	defer observe("save_all", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return err
	}

	records := make([]record, 0, len(objs))
	for i, obj := range objs {
		rec, err := prepare(obj)
		if err != nil {
			err = fmt.Errorf("object %d: %w", i, err)
			d.debugError(err.Error())
			return err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}

	err = d.update(engine, "save_all", records, func(tx persistence.Transaction) error {
		d.debugMessage(describeAll(records), logger.Int("count", len(records)))
		return setAll(tx, records)
	})
	if err == nil {
		assignKeys(records)
	}
	return err
}

// JSONSaveOptions controls SaveJSON
type JSONSaveOptions struct {
	// DeleteAll removes every stored object of the type, in the same
	// transaction, before inserting.
	DeleteAll bool
	// Single treats the document as one object instead of a list
	Single bool
}

// SaveJSON builds objects of type T from doc and upserts them in one
// transaction. Unless opts.Single is set doc must be a JSON array; its
// elements are converted and written in order. All conversion happens before
// the transaction opens.
func SaveJSON[T any, PT JSONModel[T]](d *Database, doc []byte, opts JSONSaveOptions) (err error) {
	defer observe("save_json", time.Now(), &err)

	d.mu.RLock()
	defer d.mu.RUnlock()

	engine, err := d.handle()
	if err != nil {
		return err
	}

	records, err := convertJSON[T, PT](doc, opts.Single)
	if err != nil {
		d.debugError(err.Error())
		return err
	}

	bucket := objectType[T, PT]()
	return d.update(engine, "save_json", records, func(tx persistence.Transaction) error {
		if opts.DeleteAll {
			if err := tx.DeleteAll(bucket); err != nil {
				return fmt.Errorf("failed to clear %s: %w", bucket, err)
			}
		}

		d.debugMessage(string(pretty.Ugly(doc)),
			logger.String("type", bucket),
			logger.Int("count", len(records)),
			logger.Bool("delete_all", opts.DeleteAll))

		return setAll(tx, records)
	})
}

func convertJSON[T any, PT JSONModel[T]](doc []byte, single bool) ([]record, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: malformed document", ErrInvalidJSON)
	}

	parsed := gjson.ParseBytes(doc)

	var elements []gjson.Result
	if single {
		elements = []gjson.Result{parsed}
	} else {
		if !parsed.IsArray() {
			return nil, fmt.Errorf("%w: expected a list, got %s", ErrInvalidJSON, parsed.Type)
		}
		elements = parsed.Array()
	}

	records := make([]record, 0, len(elements))
	for i, element := range elements {
		obj := PT(new(T))
		if err := obj.FromJSON(element); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrConversion, i, err)
		}

		rec, err := prepare(obj)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func setAll(tx persistence.Transaction, records []record) error {
	for _, rec := range records {
		if err := tx.Set(rec.bucket, rec.key, rec.value); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", rec.bucket, rec.key, err)
		}
	}
	return nil
}
