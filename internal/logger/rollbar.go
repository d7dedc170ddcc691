package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

// Rollbar reports errors to Rollbar and mirrors every line to a local logger.
type Rollbar struct {
	local Logger
}

var _ Logger = (*Rollbar)(nil)

// RollbarOptions configures the global Rollbar notifier.
type RollbarOptions struct {
	Token       string
	Environment string
	ServerHost  string
	CodeVersion string
}

// NewRollbar configures the rollbar client and wraps local.
func NewRollbar(local Logger, opts RollbarOptions) *Rollbar {
	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Environment)
	rollbar.SetServerHost(opts.ServerHost)
	rollbar.SetCodeVersion(opts.CodeVersion)
	rollbar.SetStackTracer(errors.StackTracer)
	return &Rollbar{local: local}
}

func (l *Rollbar) Info(msg string, fields Fields) {
	l.local.Info(msg, fields)
}

func (l *Rollbar) Error(msg string, err error, fields Fields) {
	extras := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		extras[k] = v
	}
	extras["message"] = msg
	if err != nil {
		rollbar.Error(err, extras)
	} else {
		rollbar.Error(msg, extras)
	}
	l.local.Error(msg, err, fields)
}

// Close blocks until queued reports are sent.
func (l *Rollbar) Close() {
	rollbar.Wait()
}
