package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger and clears any per-component level
// overrides set by a previous Init (spec.md §6: re-running `validate`/`run`
// against a new configuration directory starts logging fresh).
func Init(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level.zerolog())

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}

	componentLevels.mu.Lock()
	componentLevels.m = make(map[string]zerolog.Level)
	componentLevels.mu.Unlock()
}

// componentLevels holds per-component minimum-level overrides, set with
// SetComponentLevel. zerolog gates each event on max(global level, the
// logger's own level) — a per-logger level can only raise its effective
// floor above the global one, never lower it. Kestrel's worker loop drives
// a dozen components (engine, watch, config, action, remote, ...) through
// one shared global Logger; running with Init's global level at Debug to
// chase one failing block also turns on the file watcher's per-event debug
// logging (spec.md §4.9), which drowns everything else out. SetComponentLevel
// lets one noisy component (typically "watch") be quieted back down to Info
// or Warn without lowering the global Debug level everyone else still needs.
var componentLevels = struct {
	mu sync.RWMutex
	m  map[string]zerolog.Level
}{m: make(map[string]zerolog.Level)}

// SetComponentLevel raises the minimum level for loggers built by
// WithComponent (and, transitively, WithService/WithBlock/WithTask) for one
// component name, on top of whatever floor Init's global level already set.
// Passing an empty Level clears the override, returning that component to
// logging at the plain global level.
func SetComponentLevel(component string, level Level) {
	componentLevels.mu.Lock()
	defer componentLevels.mu.Unlock()
	if level == "" {
		delete(componentLevels.m, component)
		return
	}
	componentLevels.m[component] = level.zerolog()
}

func componentLevel(component string) (zerolog.Level, bool) {
	componentLevels.mu.RLock()
	defer componentLevels.mu.RUnlock()
	lvl, ok := componentLevels.m[component]
	return lvl, ok
}

// WithComponent creates a child logger tagged with a component field,
// honoring any override set for component via SetComponentLevel.
func WithComponent(component string) zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	if lvl, ok := componentLevel(component); ok {
		l = l.Level(lvl)
	}
	return l
}

// WithService creates a child logger with a service_id field, for logging
// that isn't yet scoped to one block (spec.md §4's service-level events:
// workdir resolution, environment merge).
func WithService(serviceID string) zerolog.Logger {
	return WithComponent("service").With().Str("service_id", serviceID).Logger()
}

// WithBlock creates a child logger with service_id and block_id fields, the
// scope almost everything in pkg/block and pkg/requirement logs at.
func WithBlock(serviceID, blockID string) zerolog.Logger {
	return WithComponent("block").With().Str("service_id", serviceID).Str("block_id", blockID).Logger()
}

// WithTask creates a child logger with a task_id field, for pkg/task's
// per-task step execution.
func WithTask(taskID string) zerolog.Logger {
	return WithComponent("task").With().Str("task_id", taskID).Logger()
}

// Helper functions for common logging patterns
func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Debug(msg string) {
	Logger.Debug().Msg(msg)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Error(msg string) {
	Logger.Error().Msg(msg)
}

func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(format)
}

func Fatal(msg string) {
	Logger.Fatal().Msg(msg)
}
