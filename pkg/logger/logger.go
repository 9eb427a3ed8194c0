package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	log  *zap.Logger
)

// Logger returns the process-wide zap logger, building it on first use.
// APP_ENV=development switches to the human-readable development encoder.
func Logger() *zap.Logger {
	once.Do(func() {
		var err error
		if os.Getenv("APP_ENV") == "development" {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			log = zap.NewNop()
		}
	})
	return log
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
