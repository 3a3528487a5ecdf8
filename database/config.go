package database

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/neogan74/embeddb/internal/persistence"
)

// StorageMode selects between a memory-only and a file-backed store
type StorageMode string

const (
	InMemory StorageMode = "inMemory"
	OnDisk   StorageMode = "onDisk"
)

// ParseStorageMode accepts the canonical mode names, case-insensitively
func ParseStorageMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "inmemory", "memory":
		return InMemory, nil
	case "ondisk", "disk", "":
		return OnDisk, nil
	default:
		return "", fmt.Errorf("unknown storage mode: %s (must be inMemory or onDisk)", s)
	}
}

// Verbosity gates the three debug sinks
type Verbosity int

const (
	VerbosityNone Verbosity = iota
	VerbosityAll
	VerbosityErrorOnly
	VerbosityMessageOnly
)

func (v Verbosity) String() string {
	switch v {
	case VerbosityNone:
		return "none"
	case VerbosityAll:
		return "all"
	case VerbosityErrorOnly:
		return "error"
	case VerbosityMessageOnly:
		return "message"
	default:
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
}

// ParseVerbosity parses "none", "all", "error" and "message"
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return VerbosityNone, nil
	case "all":
		return VerbosityAll, nil
	case "error", "erroronly":
		return VerbosityErrorOnly, nil
	case "message", "messageonly":
		return VerbosityMessageOnly, nil
	default:
		return VerbosityNone, fmt.Errorf("unknown verbosity: %s (must be none, all, error or message)", s)
	}
}

func (v Verbosity) logsErrors() bool {
	return v == VerbosityAll || v == VerbosityErrorOnly
}

func (v Verbosity) logsMessages() bool {
	return v == VerbosityAll || v == VerbosityMessageOnly
}

func (v Verbosity) logsSettings() bool {
	return v == VerbosityAll || v == VerbosityMessageOnly || v == VerbosityErrorOnly
}

// Defaults applied by Configure to zero fields
const (
	DefaultName    = "default"
	DefaultDataDir = "./data"
)

// Configuration describes the store a Database opens. The zero value is an
// on-disk badger store named "default" under ./data with logging disabled.
type Configuration struct {
	Name        string
	StorageMode StorageMode
	Verbosity   Verbosity

	// Engine is "memory", "badger" or "bolt". Empty picks memory for InMemory
	// and badger for OnDisk.
	Engine     string
	DataDir    string
	SyncWrites bool
}

func (c Configuration) withDefaults() Configuration {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.StorageMode == "" {
		c.StorageMode = OnDisk
	}
	if c.Engine == "" {
		if c.StorageMode == InMemory {
			c.Engine = persistence.TypeMemory
		} else {
			c.Engine = persistence.TypeBadger
		}
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	return c
}

// Validate checks a configuration with defaults applied
func (c Configuration) Validate() error {
	c = c.withDefaults()

	if c.Name != filepath.Base(c.Name) || c.Name == "." || c.Name == ".." {
		return fmt.Errorf("invalid name %q: must be a plain file name", c.Name)
	}

	switch c.StorageMode {
	case InMemory, OnDisk:
	default:
		return fmt.Errorf("unknown storage mode: %s", c.StorageMode)
	}

	if c.Verbosity < VerbosityNone || c.Verbosity > VerbosityMessageOnly {
		return fmt.Errorf("unknown verbosity: %s", c.Verbosity)
	}

	switch c.Engine {
	case persistence.TypeMemory:
		if c.StorageMode != InMemory {
			return fmt.Errorf("engine %s requires storage mode %s", c.Engine, InMemory)
		}
	case persistence.TypeBolt:
		if c.StorageMode != OnDisk {
			return fmt.Errorf("engine %s requires storage mode %s", c.Engine, OnDisk)
		}
	case persistence.TypeBadger:
	default:
		return fmt.Errorf("unsupported engine: %s (must be memory, badger or bolt)", c.Engine)
	}

	return nil
}

// StorePath is where an on-disk store lives: a directory for badger and a
// file for bolt. It is empty for in-memory stores.
func (c Configuration) StorePath() string {
	c = c.withDefaults()
	if c.StorageMode == InMemory {
		return ""
	}
	switch c.Engine {
	case persistence.TypeBolt:
		return filepath.Join(c.DataDir, c.Name+".bolt")
	default:
		return filepath.Join(c.DataDir, c.Name+".badger")
	}
}

func (c Configuration) persistenceConfig() persistence.Config {
	pc := persistence.Config{
		Type:          c.Engine,
		SyncWrites:    c.SyncWrites,
		ReadOnly:      false,
		SchemaVersion: 0,
	}
	if c.StorageMode == InMemory {
		pc.Mode = persistence.ModeMemory
		pc.InMemoryIdentifier = string(InMemory)
	} else {
		pc.Mode = persistence.ModeDisk
		pc.Path = c.StorePath()
	}
	return pc
}
