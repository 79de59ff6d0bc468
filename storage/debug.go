package storage

import (
	"github.com/sirupsen/logrus"
)

type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

func newLogger(enabled bool, serviceName string) *logger {
	return &logger{
		entry:           logrus.WithField("storage", serviceName),
		debuggerEnabled: enabled,
	}
}

// d logs at debug level when the debugger is enabled
func (l *logger) d(s string, args ...interface{}) {
	if l != nil && l.debuggerEnabled && l.entry != nil {
		l.entry.Debugf(s, args...)
	}
}

// warn always logs; used when the cache misbehaves but the db call succeeded
func (l *logger) warn(err error, s string, args ...interface{}) {
	if l == nil || l.entry == nil {
		return
	}
	l.entry.WithError(err).Warnf(s, args...)
}

func (l *logger) WithFields(fields logrus.Fields) *logger {
	if l == nil || l.entry == nil {
		return l
	}
	return &logger{
		entry:           l.entry.WithFields(fields),
		debuggerEnabled: l.debuggerEnabled,
	}
}
