package log

// discardLogger satisfies Logger with no-ops, used as the default before
// Init runs so components never need a nil check just to log.
type discardLogger struct{}

func newDiscardLogger() Logger { return discardLogger{} }

func (discardLogger) Print(args ...any)                 {}
func (discardLogger) Printf(format string, args ...any) {}
func (discardLogger) Trace(args ...any)                 {}
func (discardLogger) Tracef(format string, args ...any) {}
func (discardLogger) Debug(args ...any)                 {}
func (discardLogger) Debugf(format string, args ...any) {}
func (discardLogger) Info(args ...any)                  {}
func (discardLogger) Infof(format string, args ...any)  {}
func (discardLogger) Warn(args ...any)                  {}
func (discardLogger) Warnf(format string, args ...any)  {}
func (discardLogger) Error(args ...any)                 {}
func (discardLogger) Errorf(format string, args ...any) {}
func (discardLogger) Fatal(args ...any)                 {}
func (discardLogger) Fatalf(format string, args ...any) {}
func (discardLogger) Panic(args ...any)                 {}
func (discardLogger) Panicf(format string, args ...any) {}

func (d discardLogger) WithField(string, any) Logger            { return d }
func (d discardLogger) WithFields(map[string]any) Logger        { return d }
func (d discardLogger) WithError(error) Logger                  { return d }
func (discardLogger) IsTraceEnabled() bool                      { return false }
func (discardLogger) IsDebugEnabled() bool                      { return false }
func (discardLogger) IsInfoEnabled() bool                       { return false }
