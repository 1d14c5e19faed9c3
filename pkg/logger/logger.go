package logger

import (
	"slices"
	"sync"
)

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	instances []LoggerInstance
	keyvals   []any
}

var (
	mu        sync.RWMutex
	singleton *Logger
)

// Init initializes the global logger with one or more logging backends.
// Until it is called every logging function is a no-op.
func Init(instances ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	singleton = &Logger{instances: instances}
}

// SetDefaultFields attaches keyvals to every following log call, e.g. the
// run id of a pipeline.
func SetDefaultFields(keyvals ...any) {
	mu.Lock()
	defer mu.Unlock()
	if singleton != nil {
		singleton = &Logger{instances: singleton.instances, keyvals: slices.Clone(keyvals)}
	}
}

func dispatch(keyvals []any, fn func(LoggerInstance, []any)) {
	mu.RLock()
	l := singleton
	mu.RUnlock()
	if l == nil {
		return
	}
	if len(l.keyvals) > 0 {
		keyvals = append(slices.Clone(l.keyvals), keyvals...)
	}
	for _, instance := range l.instances {
		fn(instance, keyvals)
	}
}

// Log writes a message without level to all configured backends.
func Log(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Log(message, kv...) })
}

func Debug(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Debug(message, kv...) })
}

func Info(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Info(message, kv...) })
}

func Warn(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Warn(message, kv...) })
}

func Error(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Error(message, kv...) })
}

// Fatal logs at FATAL level. Backends are expected to exit the process.
func Fatal(message string, keyvals ...any) {
	dispatch(keyvals, func(i LoggerInstance, kv []any) { i.Fatal(message, kv...) })
}
