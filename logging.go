package rx

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	WithField(string, interface{}) Logger
	With(map[string]interface{}) Logger

	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

var (
	loggerMu sync.RWMutex
	logger   Logger = NewLogger(logrus.StandardLogger())
)

// NewLogger wraps a logrus logger.
func NewLogger(l *logrus.Logger) Logger {
	return &logrusLoggerWrapper{l}
}

// SetLogger replaces the package logger and returns the previous one.
func SetLogger(l Logger) Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	if l == nil {
		l = NewLogger(logrus.StandardLogger())
	}
	logger = l
	return prev
}

// GetLogger returns the package logger.
func GetLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

type logrusLoggerWrapper struct {
	*logrus.Logger
}

func (l *logrusLoggerWrapper) WithField(field string, value interface{}) Logger {
	return &logrusEntryWrapper{l.Logger.WithField(field, value)}
}

func (l *logrusLoggerWrapper) With(fields map[string]interface{}) Logger {
	return &logrusEntryWrapper{l.Logger.WithFields(fields)}
}

type logrusEntryWrapper struct {
	*logrus.Entry
}

func (e *logrusEntryWrapper) WithField(field string, value interface{}) Logger {
	return &logrusEntryWrapper{e.Entry.WithField(field, value)}
}

func (e *logrusEntryWrapper) With(fields map[string]interface{}) Logger {
	return &logrusEntryWrapper{e.Entry.WithFields(fields)}
}
