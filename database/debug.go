package database

import "github.com/neogan74/embeddb/internal/logger"

const (
	errorPrefix    = "database error > "
	messagePrefix  = "database > "
	settingsPrefix = "database settings > "
)

// The sink helpers read d.config and must be called with d.mu held.

func (d *Database) sinkLogger() logger.Logger {
	if d.handleID == "" {
		return d.log
	}
	return d.log.WithFields(logger.String("handle_id", d.handleID))
}

func (d *Database) debugError(msg string, fields ...logger.Field) {
	if d.config == nil || !d.config.Verbosity.logsErrors() {
		return
	}
	d.sinkLogger().Error(errorPrefix+msg, fields...)
}

func (d *Database) debugMessage(msg string, fields ...logger.Field) {
	if d.config == nil || !d.config.Verbosity.logsMessages() {
		return
	}
	d.sinkLogger().Info(messagePrefix+msg, fields...)
}

func (d *Database) settings(msg string, fields ...logger.Field) {
	if d.config == nil || !d.config.Verbosity.logsSettings() {
		return
	}
	d.sinkLogger().Info(settingsPrefix+msg, fields...)
}

// engineLogger carries engine-internal output (badger warnings, GC failures)
// onto the error sink. Debug and info lines are dropped.
type engineLogger struct {
	log logger.Logger
}

// engineLog returns the logger handed to persistence engines: a sink-gated
// view when errors are logged, a no-op otherwise.
func (d *Database) engineLog() logger.Logger {
	if d.config == nil || !d.config.Verbosity.logsErrors() {
		return logger.Nop()
	}
	return &engineLogger{log: d.log}
}

func (l *engineLogger) Debug(string, ...logger.Field) {}
func (l *engineLogger) Info(string, ...logger.Field)  {}

func (l *engineLogger) Warn(msg string, fields ...logger.Field) {
	l.log.Error(errorPrefix+msg, fields...)
}

func (l *engineLogger) Error(msg string, fields ...logger.Field) {
	l.log.Error(errorPrefix+msg, fields...)
}

func (l *engineLogger) Named(name string) logger.Logger {
	return &engineLogger{log: l.log.Named(name)}
}

func (l *engineLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &engineLogger{log: l.log.WithFields(fields...)}
}
