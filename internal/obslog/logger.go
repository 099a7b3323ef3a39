package obslog

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger = newLogger()
	currentWriter io.Writer = os.Stderr
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Logger returns the package-wide logger. Components in this module log
// through here rather than holding their own handle, so a single
// SetLevel/SetWriter/SetFormatter call re-points every call site.
func Logger() *logrus.Logger {
	return defaultLogger
}

// SetFormatter replaces the logger's output formatter, for callers who
// want JSON logs instead of the default text format.
func SetFormatter(f logrus.Formatter) {
	defaultLogger.SetFormatter(f)
}

// SetWriter redirects subsequent log output.
func SetWriter(w io.Writer) {
	currentWriter = w
	defaultLogger.SetOutput(currentWriter)
}

// SetLevel sets the minimum level that reaches the configured writer.
// LevelOff discards all output instead, since logrus has no off level.
func SetLevel(level Level) {
	if level == LevelOff {
		defaultLogger.SetOutput(io.Discard)
		return
	}
	defaultLogger.SetOutput(currentWriter)
	defaultLogger.SetLevel(toLogrusLevel(level))
}

// CellError logs a per-cell decode failure at Debug level with structured
// position fields. A single bad cell is not an application-level warning;
// it is surfaced to the caller as a returned error, and logged here only
// for debug-level diagnosis.
func CellError(ctx context.Context, chunkIndex, rowIndex, columnIndex int, err error) {
	defaultLogger.WithContext(ctx).WithFields(logrus.Fields{
		"chunk_index":  chunkIndex,
		"row_index":    rowIndex,
		"column_index": columnIndex,
		"error":        err,
	}).Debug("cell decode failed")
}
