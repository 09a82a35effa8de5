package logrus

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/unihub/logger"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ logger.Logger = LogrusLogger{}

func (l LogrusLogger) Debug(msg string, f logger.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f logger.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f logger.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f logger.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}

// New returns a text logger on stderr at the given level.
func New(level string) (LogrusLogger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, err
	}
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	return LogrusLogger{E: logrus.NewEntry(l)}, nil
}
