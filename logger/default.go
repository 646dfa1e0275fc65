package logger

import "sync/atomic"

// holder lets loggers of different concrete types share one atomic.Pointer.
type holder struct {
	l Logger
}

var defLogger atomic.Pointer[holder]

func init() {
	defLogger.Store(&holder{l: NewSlog(InfoLevel, false)})
}

func Debug(msg string, keysAndValues ...any) {
	GetLogger().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	GetLogger().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	GetLogger().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	GetLogger().Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	GetLogger().Fatal(msg, keysAndValues...)
}

func SetLevel(level Level) {
	GetLogger().SetLevel(level)
}

// GetLogger returns the package default logger. It is safe for concurrent use with SetLogger.
func GetLogger() Logger {
	return defLogger.Load().l
}

// SetLogger replaces the package default logger. A nil logger is ignored.
//
// Loggers already handed out, e.g. stored in a DeviceConfig, keep the previous value.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	defLogger.Store(&holder{l: l})
}

func With(keyValues ...any) Logger {
	return GetLogger().With(keyValues...)
}
