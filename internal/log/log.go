// Package log provides the structured logging facade every pipeline
// component logs through: a logrus-backed Logger, formatted through a
// configurable pattern and optionally mirrored to a rotating file via
// lumberjack.
package log

import (
	"sync"
)

// Logger is the facade every component depends on, rather than a concrete
// logging library, so components stay testable with a recording stub.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	logger Logger = newDiscardLogger()
	mu     sync.RWMutex
)

// GetLogger returns the process-wide logger. Safe to call before Init; it
// returns a discarding logger until Init installs the real one.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init installs the process-wide logger built from cfg. Only the first
// call takes effect, matching the teacher's once-initialized global.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		if err := initByConfig(cfg); err != nil {
			panic(err)
		}
	})
}

func setLogger(l Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}
