package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

var _ Mailer = (*Log)(nil)

// Log only logs the message; for local runs
type Log struct {
	entry *logrus.Entry
}

func NewLog(entry *logrus.Entry) *Log {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Log{entry: entry}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	err := msg.Validate()
	if err != nil {
		return err
	}
	l.entry.WithFields(logrus.Fields{
		"to":      msg.To,
		"cc":      msg.Cc,
		"subject": msg.Subject,
	}).Info(msg.Text)
	return nil
}
