// Package logger wraps a process-wide zap logger. Until Init is called every
// call is a no-op, so library code can log unconditionally.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared by every log line.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldFile      = "file"
	FieldFormat    = "format"
	FieldCount     = "count"
	FieldDropped   = "dropped"
	FieldAgent     = "agent"
	FieldRunID     = "run_id"
	FieldModel     = "model"
	FieldProvider  = "provider"
	FieldAddress   = "address"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
)

var (
	// Logger is the process-wide sugared logger.
	Logger = zap.NewNop().Sugar()
	// JSONOutput records whether Init selected the JSON encoder.
	JSONOutput bool
)

// Init installs a logger writing to stderr. debug lowers the level from warn
// to debug; jsonOutput selects the production JSON encoder.
func Init(debug, jsonOutput bool) error {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	JSONOutput = jsonOutput
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stderr"}
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = l.Sugar()
		return nil
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stderr), level)
	Logger = zap.New(core).Sugar()
	return nil
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.SugaredLogger {
	return Logger.With(FieldComponent, component)
}

// Sync flushes buffered entries.
func Sync() {
	_ = Logger.Sync()
}

func Debugw(msg string, keysAndValues ...any) { Logger.Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...any)  { Logger.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { Logger.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { Logger.Errorw(msg, keysAndValues...) }
