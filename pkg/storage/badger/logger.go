package badger

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger adapts slog to Badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...any) {
	l.logger.Error(format(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(format(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...any) {
	l.logger.Debug(format(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...any) {
	l.logger.Debug(format(f, v...))
}

func format(f string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(f, v...))
}
