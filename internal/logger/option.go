package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fixedLevelCore overrides the level of the wrapped core so that a derived
// logger can stay louder (or quieter) than the global one.
type fixedLevelCore struct {
	zapcore.Core

	// level is the minimum level accepted by this core.
	level zapcore.Level
}

// Enabled reports whether l passes the fixed level.
func (c *fixedLevelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to ce when the entry passes the fixed level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *fixedLevelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the fixed level on cores derived with fields.
//
//nolint:ireturn,nolintlint // zapcore.Core is the required return type.
func (c *fixedLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &fixedLevelCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel pins the level of a derived logger regardless of the global level.
// The status sink uses it so notification lines survive a quiet log level.
//
//nolint:ireturn,nolintlint // zap.Option is the required return type.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &fixedLevelCore{
			Core:  core,
			level: lvl,
		}
	})
}
