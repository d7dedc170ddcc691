// Package logger provides the application logger. Errors can additionally be
// reported to Rollbar.
package logger

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
)

// Fields is structured context attached to a log line.
type Fields map[string]any

// Logger is what the rest of the application logs through.
type Logger interface {
	Info(msg string, fields Fields)
	Error(msg string, err error, fields Fields)
}

// Std writes key=value lines through a standard library logger.
type Std struct {
	std *log.Logger
}

var _ Logger = (*Std)(nil)

// NewStd logs to w with the usual date/time prefix.
func NewStd(w io.Writer) *Std {
	return &Std{std: log.New(w, "", log.LstdFlags|log.LUTC)}
}

func (l *Std) Info(msg string, fields Fields) {
	l.std.Println(format("INFO", msg, nil, fields))
}

func (l *Std) Error(msg string, err error, fields Fields) {
	l.std.Println(format("ERROR", msg, err, fields))
}

func format(level, msg string, err error, fields Fields) string {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	if err != nil {
		fmt.Fprintf(&b, " err=%q", err.Error())
	}
	return b.String()
}

// Nop discards everything. Handy in tests.
type Nop struct{}

func (Nop) Info(string, Fields)         {}
func (Nop) Error(string, error, Fields) {}
