package common

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-ro",
		})
		l.SetLevel(log.InfoLevel)
		singleton = &logger{l}
	})
	return singleton
}

// SetLogLevel changes the level of the process-wide logger.
// Unknown level names are ignored and reported as false.
//
// Parameters:
//   - level: one of "debug", "info", "warn", "error"
//
// Returns:
//   - bool: true if the level was recognised and applied
func SetLogLevel(level string) bool {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return false
	}
	getLogger().SetLevel(lvl)
	return true
}

// LogDebug logs a formatted message at debug level.
func LogDebug(msg string, args ...any) {
	getLogger().Helper()
	getLogger().Debugf(msg, args...)
}

// LogInfo logs a formatted message at info level.
func LogInfo(msg string, args ...any) {
	getLogger().Helper()
	getLogger().Infof(msg, args...)
}

// LogWarn logs a formatted message at warn level.
func LogWarn(msg string, args ...any) {
	getLogger().Helper()
	getLogger().Warnf(msg, args...)
}

// LogError logs a formatted message at error level.
func LogError(msg string, args ...any) {
	getLogger().Helper()
	getLogger().Errorf(msg, args...)
}
