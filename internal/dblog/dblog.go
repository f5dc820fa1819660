// Package dblog configures the single structured logger shared by the
// pager, table, and engine packages.
package dblog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger writing to stderr at the given level name
// ("debug", "info", "warn", "error"). An unrecognized level falls back to
// Info rather than failing the whole process over a flag typo.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
