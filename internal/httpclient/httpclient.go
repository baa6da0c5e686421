// Package httpclient builds the HTTP client the authentication flows and
// API requests go through.
package httpclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"forrest/internal/config"
	"forrest/pkg/logging"
)

const subsystem = "HTTP"

// LeveledLogger adapts retryablehttp logging onto pkg/logging.
type LeveledLogger struct{}

var _ retryablehttp.LeveledLogger = LeveledLogger{}

// Error is logged as WARN: the request is usually retried.
func (LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	logging.Warn(subsystem, "%s", formatKV(msg, keysAndValues))
}

func (LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	logging.Warn(subsystem, "%s", formatKV(msg, keysAndValues))
}

func (LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug(subsystem, "%s", formatKV(msg, keysAndValues))
}

func (LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	logging.Debug(subsystem, "%s", formatKV(msg, keysAndValues))
}

func formatKV(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v", keysAndValues[i])
		}
	}
	return b.String()
}

// New returns a standard *http.Client with retryablehttp behind it. It
// retries connection errors, 5xx responses (except 501) and 429s honouring
// Retry-After, logging intermediate failures at WARN. Once retries are
// exhausted the last response is returned as is, so callers still see the
// upstream status and body.
func New(cfg config.ClientConfig) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = cfg.RetryWaitMax
	}
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledLogger{})
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := retryClient.StandardClient()
	client.Timeout = cfg.Timeout
	return client
}
