package wsbridge

import (
	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	logrus.FieldLogger
}

// NewLogrusLogger adapts a logrus logger (or entry) to Logger.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{FieldLogger: l}
}

func (l logrusLogger) WithField(key string, value any) Logger {
	return logrusLogger{FieldLogger: l.FieldLogger.WithField(key, value)}
}
