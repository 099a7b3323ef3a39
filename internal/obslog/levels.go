// Package obslog provides the ambient logging used across the decoding
// core, layered on the same logrus dependency the surrounding driver logs
// through.
package obslog

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the core's own level enum, kept separate from logrus.Level so
// callers (and the TOML/JSON config files) can spell "OFF" without this
// package leaking logrus as part of its public API.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// ParseLevel converts a case-insensitive level name to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(level) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "OFF":
		return LevelOff, nil
	default:
		return LevelInfo, fmt.Errorf("obslog: unknown log level %q", level)
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// toLogrusLevel maps a Level onto logrus's own (reverse-ordered) scale.
// LevelOff has no logrus equivalent; callers handle it by discarding
// output instead of calling this.
func toLogrusLevel(l Level) logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
