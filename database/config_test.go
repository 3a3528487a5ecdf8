package database

import (
	"path/filepath"
	"testing"

	"github.com/neogan74/embeddb/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerbosity(t *testing.T) {
	testCases := []struct {
		input    string
		expected Verbosity
		wantErr  bool
	}{
		{"none", VerbosityNone, false},
		{"", VerbosityNone, false},
		{"ALL", VerbosityAll, false},
		{"error", VerbosityErrorOnly, false},
		{"errorOnly", VerbosityErrorOnly, false},
		{"message", VerbosityMessageOnly, false},
		{"messageOnly", VerbosityMessageOnly, false},
		{"loud", VerbosityNone, true},
	}

	for _, tc := range testCases {
		got, err := ParseVerbosity(tc.input)
		if tc.wantErr {
			assert.Error(t, err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, got, tc.input)
	}
}

func TestParseStorageMode(t *testing.T) {
	mode, err := ParseStorageMode("inMemory")
	require.NoError(t, err)
	assert.Equal(t, InMemory, mode)

	mode, err = ParseStorageMode("onDisk")
	require.NoError(t, err)
	assert.Equal(t, OnDisk, mode)

	_, err = ParseStorageMode("cloud")
	assert.Error(t, err)
}

func TestConfiguration_Defaults(t *testing.T) {
	cfg := Configuration{}.withDefaults()

	assert.Equal(t, DefaultName, cfg.Name)
	assert.Equal(t, OnDisk, cfg.StorageMode)
	assert.Equal(t, persistence.TypeBadger, cfg.Engine)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, VerbosityNone, cfg.Verbosity)

	mem := Configuration{StorageMode: InMemory}.withDefaults()
	assert.Equal(t, persistence.TypeMemory, mem.Engine)
}

func TestConfiguration_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{"zero value", Configuration{}, false},
		{"in memory", Configuration{StorageMode: InMemory}, false},
		{"badger in memory", Configuration{StorageMode: InMemory, Engine: "badger"}, false},
		{"bolt on disk", Configuration{Engine: "bolt"}, false},
		{"bolt in memory", Configuration{StorageMode: InMemory, Engine: "bolt"}, true},
		{"memory on disk", Configuration{StorageMode: OnDisk, Engine: "memory"}, true},
		{"unknown engine", Configuration{Engine: "sqlite"}, true},
		{"unknown mode", Configuration{StorageMode: "cloud"}, true},
		{"unknown verbosity", Configuration{Verbosity: Verbosity(42)}, true},
		{"path in name", Configuration{Name: "a/b"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfiguration_StorePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "default.badger"), Configuration{}.StorePath())
	assert.Equal(t, filepath.Join("/tmp/x", "t1.bolt"), Configuration{Name: "t1", Engine: "bolt", DataDir: "/tmp/x"}.StorePath())
	assert.Empty(t, Configuration{StorageMode: InMemory}.StorePath())
}

func TestConfiguration_PersistenceConfig(t *testing.T) {
	mem := Configuration{StorageMode: InMemory}.withDefaults().persistenceConfig()
	assert.Equal(t, persistence.ModeMemory, mem.Mode)
	assert.Equal(t, "inMemory", mem.InMemoryIdentifier)
	assert.Empty(t, mem.Path)
	assert.False(t, mem.ReadOnly)
	assert.Zero(t, mem.SchemaVersion)

	disk := Configuration{Name: "t1", DataDir: "/var/lib/embeddb"}.withDefaults().persistenceConfig()
	assert.Equal(t, persistence.ModeDisk, disk.Mode)
	assert.Equal(t, filepath.Join("/var/lib/embeddb", "t1.badger"), disk.Path)
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "", FormatKey(nil))
	assert.Equal(t, "abc", FormatKey("abc"))
	assert.Equal(t, "abc", FormatKey([]byte("abc")))
	assert.Equal(t, "42", FormatKey(42))
	assert.Equal(t, "42", FormatKey(uint8(42)))
	assert.Equal(t, "-7", FormatKey(int64(-7)))
	assert.Equal(t, "1.5", FormatKey(1.5))
	assert.Equal(t, "onDisk", FormatKey(stringer("onDisk")))
}

type stringer string

func (s stringer) String() string { return string(s) }
