package common

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var loggerOnce sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	loggerOnce.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			CallerOffset:    2,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-cube",
		})
		l.SetLevel(log.InfoLevel)
		singleton = &logger{l}
	})
	return singleton
}

// SetLogLevel sets the minimum level emitted by the shared logger.
//
// Parameters:
//   - level: one of "debug", "info", "warn", "error" or "fatal"
//
// Returns:
//   - error: an error if the level name is not recognized
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(lvl)
	return nil
}

// Logger returns the shared structured logger for callers that want key/value fields.
func Logger() *log.Logger {
	return getLogger().Logger
}

func LogDebug(msg string, args ...any) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...any) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...any) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...any) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...any) {
	getLogger().Fatalf(msg, args...)
}
