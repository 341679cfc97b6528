package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

type watermillAdapter struct {
	entry *logrus.Entry
}

// NewWatermill bridges watermill's logger interface onto logrus.
func NewWatermill(entry *logrus.Entry) watermill.LoggerAdapter {
	return watermillAdapter{entry: entry}
}

func (a watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)
}

func (a watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (a watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.entry.WithFields(logrus.Fields(fields)).Trace(msg)
}

func (a watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillAdapter{entry: a.entry.WithFields(logrus.Fields(fields))}
}
