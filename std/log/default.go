package log

import "os"

var defaultLogger = NewText(os.Stderr)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// HasTrace returns if trace level is enabled on the default logger.
func HasTrace() bool {
	return defaultLogger.Enabled(LevelTrace)
}
