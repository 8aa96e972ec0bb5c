package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// logrusAdapter backs the Logger facade with logrus, formatted through the
// custom pattern formatter below so call sites read like the teacher's
// logging output regardless of which library sits underneath.
type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg *LoggerConfig) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := logrus.New()
	l.SetFormatter(&formatter{pattern: cfg.Pattern, time: cfg.Time})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(true)

	mw := NewMultiWriter().Add(os.Stdout)
	if cfg.File != nil {
		mw = mw.AddFileAppender(*cfg.File)
	}
	l.SetOutput(mw)

	setLogger(&logrusAdapter{entry: logrus.NewEntry(l)})
	return nil
}

func (l *logrusAdapter) Print(args ...any)                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...any) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...any)                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...any)                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...any) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...any)                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...any)                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...any)                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...any) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...any)                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...any) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value any) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]any) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool { return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel) }
func (l *logrusAdapter) IsDebugEnabled() bool { return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) }
func (l *logrusAdapter) IsInfoEnabled() bool  { return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel) }
