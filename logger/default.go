package logger

// defLogger is the package-level logger handed out by GetLogger. It backs
// the recorder and bus packages when no logger option is supplied.
var defLogger = NewSlog(InfoLevel, false)

// GetLogger returns the package-level default logger.
func GetLogger() Logger {
	return defLogger
}

// With creates a child of the default logger with added context.
func With(keyValues ...any) Logger {
	return defLogger.With(keyValues...)
}

// SetLevel sets the minimum enabled level of the default logger.
func SetLevel(level Level) {
	defLogger.SetLevel(level)
}

func Debug(msg string, keysAndValues ...any) {
	defLogger.Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	defLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defLogger.Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	defLogger.Fatal(msg, keysAndValues...)
}
