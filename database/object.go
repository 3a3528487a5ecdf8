package database

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Object is anything the store can persist. ObjectType names the bucket the
// object lives in; PrimaryKey identifies it within that bucket.
type Object interface {
	ObjectType() string
	PrimaryKey() any
}

// KeyAssigner is implemented by objects that accept a generated key when
// PrimaryKey is empty.
type KeyAssigner interface {
	SetPrimaryKey(key string)
}

// JSONConvertible objects can populate themselves from a JSON document
type JSONConvertible interface {
	Object
	FromJSON(doc gjson.Result) error
}

// Model constrains PT to the pointer type of T implementing Object, so
// generic helpers can allocate new instances.
type Model[T any] interface {
	*T
	Object
}

// JSONModel is Model for JSON-convertible types
type JSONModel[T any] interface {
	*T
	JSONConvertible
}

// FormatKey normalises a primary key to its stored string form
func FormatKey(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case string:
		return k
	case []byte:
		return string(k)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", k)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}

// record is an object ready to be written
type record struct {
	bucket      string
	key         string
	value       []byte
	description string

	// assigner receives the generated key once the record is committed
	assigner KeyAssigner
}

func isNil(obj Object) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// identify resolves the bucket and key of obj. With generate set, an object
// implementing KeyAssigner and lacking a key gets a fresh uuid; the returned
// assigner is non-nil in that case and obj itself is left untouched.
func identify(obj Object, generate bool) (string, string, KeyAssigner, error) {
	if isNil(obj) {
		return "", "", nil, fmt.Errorf("%w: nil object", ErrInvalidObject)
	}

	bucket := obj.ObjectType()
	if bucket == "" {
		return "", "", nil, fmt.Errorf("%w: %T has an empty object type", ErrInvalidObject, obj)
	}

	key := FormatKey(obj.PrimaryKey())
	if key != "" {
		return bucket, key, nil, nil
	}

	ka, ok := obj.(KeyAssigner)
	if !generate || !ok {
		return "", "", nil, fmt.Errorf("%w: %s", ErrMissingPrimaryKey, bucket)
	}
	return bucket, uuid.NewString(), ka, nil
}

func prepare(obj Object) (record, error) {
	bucket, key, assigner, err := identify(obj, true)
	if err != nil {
		return record{}, err
	}

	// The stored encoding carries the generated key; the caller's object only
	// keeps it after commit.
	if assigner != nil {
		assigner.SetPrimaryKey(key)
		defer assigner.SetPrimaryKey("")
	}

	value, err := json.Marshal(obj)
	if err != nil {
		return record{}, fmt.Errorf("%w: encoding %s/%s: %w", ErrConversion, bucket, key, err)
	}

	return record{
		bucket:      bucket,
		key:         key,
		value:       value,
		description: describe(obj, value),
		assigner:    assigner,
	}, nil
}

// assignKeys hands generated keys back to their objects
func assignKeys(records []record) {
	for _, rec := range records {
		if rec.assigner != nil {
			rec.assigner.SetPrimaryKey(rec.key)
		}
	}
}

func describe(obj Object, encoded []byte) string {
	if s, ok := obj.(fmt.Stringer); ok {
		return s.String()
	}
	return obj.ObjectType() + " " + string(encoded)
}

func decodeRecord[T any](bucket, key string, data []byte) (*T, error) {
	obj := new(T)
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, fmt.Errorf("%w: decoding %s/%s: %w", ErrConversion, bucket, key, err)
	}
	return obj, nil
}

func objectType[T any, PT Model[T]]() string {
	return PT(new(T)).ObjectType()
}
