package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instance *zap.SugaredLogger
	once     sync.Once
	nop      = zap.NewNop().Sugar()
)

// Setup builds the process wide logger once. Later calls return the first
// instance.
func Setup(development bool) (*zap.SugaredLogger, error) {
	var err error
	once.Do(func() {
		var l *zap.Logger
		if development {
			l, err = zap.NewDevelopment()
		} else {
			l, err = zap.NewProduction()
		}
		if err != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, err
}

// L returns the configured logger, or a no-op logger before Setup ran.
func L() *zap.SugaredLogger {
	if instance == nil {
		return nop
	}
	return instance
}

// Sync flushes buffered log entries.
func Sync() {
	if instance != nil {
		_ = instance.Sync()
	}
}
