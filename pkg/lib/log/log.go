// Package log provides the logging interface for the intake SDK.
//
// The SDK logs through [Logger]. [Noop] discards everything and is the default
// when [lib.Config] has no logger. Applications already using logrus can plug
// their entry with [NewLogrus]:
//
//	logger := log.NewLogrus(logrus.NewEntry(logrus.StandardLogger()))
//	client, err := lib.New(ctx, lib.Config{Logger: logger})
//
// Any other logger can be adapted by implementing the [Logger] interface.
package log

import (
	"github.com/sirupsen/logrus"

	"github.com/slok/intake/internal/log"
	loglogrus "github.com/slok/intake/internal/log/logrus"
)

// Logger is the interface that loggers must implement for the SDK.
//
// Structured fields are set with WithValues using [Kv], the SDK tags its
// messages with the service and user they belong to.
type Logger = log.Logger

// Kv is a helper type for structured logging key-value pairs.
type Kv = log.Kv

// Noop is a logger that discards all log output.
var Noop = log.Noop

// NewLogrus returns a [Logger] backed by a logrus entry.
func NewLogrus(e *logrus.Entry) Logger {
	return loglogrus.NewLogrus(e)
}
