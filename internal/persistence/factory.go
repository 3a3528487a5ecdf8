package persistence

import (
	"fmt"

	"github.com/neogan74/embeddb/internal/logger"
)

// NewEngine creates a persistence engine based on configuration
func NewEngine(cfg Config, log logger.Logger) (Engine, error) {
	if cfg.ReadOnly {
		return nil, fmt.Errorf("read-only engines are not supported")
	}
	if cfg.SchemaVersion != 0 {
		return nil, fmt.Errorf("unsupported schema version %d: migrations are not supported", cfg.SchemaVersion)
	}

	switch cfg.Type {
	case TypeMemory:
		if cfg.Mode != ModeMemory {
			return nil, fmt.Errorf("memory engine requires %s mode", ModeMemory)
		}
		log.Debug("Using in-memory persistence",
			logger.String("identifier", cfg.InMemoryIdentifier))
		return NewMemoryEngine(cfg.InMemoryIdentifier), nil
	case TypeBadger:
		log.Debug("Using BadgerDB persistence",
			logger.String("mode", string(cfg.Mode)),
			logger.String("path", cfg.Path),
			logger.Bool("sync_writes", cfg.SyncWrites))
		return NewBadgerEngine(cfg, log)
	case TypeBolt:
		if cfg.Mode != ModeDisk {
			return nil, fmt.Errorf("bolt engine requires %s mode", ModeDisk)
		}
		log.Debug("Using bbolt persistence", logger.String("path", cfg.Path))
		return NewBoltEngine(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Type)
	}
}
