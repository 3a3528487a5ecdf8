package persistence

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/neogan74/embeddb/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFactory func(t *testing.T) Engine

func engineFactories() map[string]engineFactory {
	log := logger.Nop()
	return map[string]engineFactory{
		"memory": func(t *testing.T) Engine {
			return NewMemoryEngine("inMemory")
		},
		"badger-memory": func(t *testing.T) Engine {
			e, err := NewBadgerEngine(Config{Type: TypeBadger, Mode: ModeMemory}, log)
			require.NoError(t, err)
			return e
		},
		"badger-disk": func(t *testing.T) Engine {
			e, err := NewBadgerEngine(Config{Type: TypeBadger, Mode: ModeDisk, Path: t.TempDir(), SyncWrites: true}, log)
			require.NoError(t, err)
			return e
		},
		"bolt": func(t *testing.T) Engine {
			e, err := NewBoltEngine(filepath.Join(t.TempDir(), "test.bolt"), log)
			require.NoError(t, err)
			return e
		},
	}
}

func forEachEngine(t *testing.T, fn func(t *testing.T, engine Engine)) {
	for name, factory := range engineFactories() {
		t.Run(name, func(t *testing.T) {
			engine := factory(t)
			defer func() { _ = engine.Close() }()
			fn(t, engine)
		})
	}
}

func TestEngine_SetGetDelete(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		err := Update(engine, func(tx Transaction) error {
			return tx.Set("person", "1", []byte(`{"id":1}`))
		})
		require.NoError(t, err)

		value, err := engine.Get("person", "1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":1}`, string(value))

		_, err = engine.Get("person", "2")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		_, err = engine.Get("missing-bucket", "1")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		err = Update(engine, func(tx Transaction) error {
			return tx.Delete("person", "1")
		})
		require.NoError(t, err)

		_, err = engine.Get("person", "1")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestEngine_DeleteMissing(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		err := Update(engine, func(tx Transaction) error {
			return tx.Delete("person", "404")
		})
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestEngine_ListOrderedByKey(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		err := Update(engine, func(tx Transaction) error {
			for _, key := range []string{"c", "a", "b"} {
				if err := tx.Set("letters", key, []byte(key)); err != nil {
					return err
				}
			}
			return tx.Set("other", "z", []byte("z"))
		})
		require.NoError(t, err)

		records, err := engine.List("letters")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "a", records[0].Key)
		assert.Equal(t, "b", records[1].Key)
		assert.Equal(t, "c", records[2].Key)
		assert.Equal(t, "c", string(records[2].Value))

		count, err := engine.Count("letters")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		empty, err := engine.List("nothing")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestEngine_RollbackDiscardsWrites(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		require.NoError(t, Update(engine, func(tx Transaction) error {
			return tx.Set("person", "1", []byte("ann"))
		}))

		boom := errors.New("boom")
		err := Update(engine, func(tx Transaction) error {
			if err := tx.DeleteAll("person"); err != nil {
				return err
			}
			if err := tx.Set("person", "2", []byte("bob")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		value, err := engine.Get("person", "1")
		require.NoError(t, err)
		assert.Equal(t, "ann", string(value))

		_, err = engine.Get("person", "2")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestEngine_DeleteAllThenInsertInOneTransaction(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		require.NoError(t, Update(engine, func(tx Transaction) error {
			for _, key := range []string{"1", "2", "3"} {
				if err := tx.Set("person", key, []byte("old")); err != nil {
					return err
				}
			}
			return nil
		}))

		require.NoError(t, Update(engine, func(tx Transaction) error {
			if err := tx.DeleteAll("person"); err != nil {
				return err
			}
			_, err := tx.Get("person", "1")
			assert.ErrorIs(t, err, ErrKeyNotFound)
			return tx.Set("person", "9", []byte("new"))
		}))

		records, err := engine.List("person")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "9", records[0].Key)
		assert.Equal(t, "new", string(records[0].Value))
	})
}

func TestEngine_TransactionReadsOwnWrites(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		require.NoError(t, Update(engine, func(tx Transaction) error {
			if err := tx.Set("person", "1", []byte("ann")); err != nil {
				return err
			}
			value, err := tx.Get("person", "1")
			if err != nil {
				return err
			}
			assert.Equal(t, "ann", string(value))
			return tx.Delete("person", "1")
		}))

		_, err := engine.Get("person", "1")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestEngine_ClosedTransactionRejectsWrites(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		tx, err := engine.BeginTx()
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		assert.ErrorIs(t, tx.Set("person", "1", nil), ErrTxClosed)
		assert.ErrorIs(t, tx.Commit(), ErrTxClosed)
		assert.NoError(t, tx.Rollback())
	})
}

func TestEngine_ConcurrentWritersWait(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine Engine) {
		const writers, rounds = 8, 20

		var wg sync.WaitGroup
		errs := make(chan error, writers*rounds)
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					key := fmt.Sprintf("%d-%d", w, i)
					errs <- Update(engine, func(tx Transaction) error {
						if err := tx.DeleteAll("person"); err != nil {
							return err
						}
						if err := tx.Set("person", key, []byte(key)); err != nil {
							return err
						}
						return tx.Delete("person", key)
					})
				}
			}(w)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		count, err := engine.Count("person")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestMemoryEngine_InstancesAreIndependent(t *testing.T) {
	first := NewMemoryEngine("inMemory")
	second := NewMemoryEngine("inMemory")

	require.NoError(t, Update(first, func(tx Transaction) error {
		return tx.Set("person", "1", []byte("ann"))
	}))

	_, err := second.Get("person", "1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Empty(t, first.Path())
}

func TestMemoryEngine_ClosedEngine(t *testing.T) {
	engine := NewMemoryEngine("inMemory")
	require.NoError(t, engine.Close())

	_, err := engine.Get("person", "1")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = engine.BeginTx()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBadgerEngine_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	log := logger.Nop()
	cfg := Config{Type: TypeBadger, Mode: ModeDisk, Path: dir, SyncWrites: true}

	engine, err := NewBadgerEngine(cfg, log)
	require.NoError(t, err)
	require.NoError(t, Update(engine, func(tx Transaction) error {
		return tx.Set("person", "1", []byte("ann"))
	}))
	require.NoError(t, engine.Close())

	reopened, err := NewBadgerEngine(cfg, log)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	value, err := reopened.Get("person", "1")
	require.NoError(t, err)
	assert.Equal(t, "ann", string(value))
	assert.Equal(t, dir, reopened.Path())
}

func TestBoltEngine_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.bolt")
	log := logger.Nop()

	engine, err := NewBoltEngine(path, log)
	require.NoError(t, err)
	require.NoError(t, Update(engine, func(tx Transaction) error {
		return tx.Set("person", "1", []byte("ann"))
	}))
	require.NoError(t, engine.Close())

	reopened, err := NewBoltEngine(path, log)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	value, err := reopened.Get("person", "1")
	require.NoError(t, err)
	assert.Equal(t, "ann", string(value))
}

func TestNewEngine(t *testing.T) {
	log := logger.Nop()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: TypeMemory, Mode: ModeMemory, InMemoryIdentifier: "inMemory"}, false},
		{"memory on disk", Config{Type: TypeMemory, Mode: ModeDisk}, true},
		{"badger in memory", Config{Type: TypeBadger, Mode: ModeMemory}, false},
		{"badger on disk", Config{Type: TypeBadger, Mode: ModeDisk, Path: filepath.Join(t.TempDir(), "db.badger")}, false},
		{"bolt in memory", Config{Type: TypeBolt, Mode: ModeMemory}, true},
		{"bolt on disk", Config{Type: TypeBolt, Mode: ModeDisk, Path: filepath.Join(t.TempDir(), "db.bolt")}, false},
		{"read only", Config{Type: TypeMemory, Mode: ModeMemory, ReadOnly: true}, true},
		{"schema version", Config{Type: TypeMemory, Mode: ModeMemory, SchemaVersion: 1}, true},
		{"unknown", Config{Type: "sqlite", Mode: ModeDisk}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewEngine(tc.cfg, log)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, engine.Describe())
			assert.NoError(t, engine.Close())
		})
	}
}
