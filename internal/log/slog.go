package log

import (
	"fmt"
	"strings"
)

// SLogCompat adapts the package logger to key/value style loggers such as the
// one gocron expects.
type SLogCompat struct {
	Prefix string
}

func (l *SLogCompat) format(msg string, args []any) string {
	var b strings.Builder
	if l.Prefix != "" {
		b.WriteString(l.Prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

func (l *SLogCompat) Debug(msg string, args ...any) {
	out(LevelDebug, l.format(msg, args))
}

func (l *SLogCompat) Error(msg string, args ...any) {
	out(LevelError, l.format(msg, args))
}

func (l *SLogCompat) Info(msg string, args ...any) {
	out(LevelInfo, l.format(msg, args))
}

func (l *SLogCompat) Warn(msg string, args ...any) {
	out(LevelWarn, l.format(msg, args))
}
