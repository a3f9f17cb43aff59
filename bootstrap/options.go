package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/discoveryping/logger"
)

// Option customizes NewApp.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	summaryOut      io.Writer
}

func resolveOptions(opts []Option) appOptions {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o appOptions) gracefulTimeoutOr(def time.Duration) time.Duration {
	if o.gracefulTimeout > 0 {
		return o.gracefulTimeout
	}
	return def
}

func (o appOptions) summaryOutOr(def io.Writer) io.Writer {
	if o.summaryOut != nil {
		return o.summaryOut
	}
	return def
}

// WithLogger uses l instead of building the global logger from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown. Non-positive values keep
// the default.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}

// WithSummaryOutput redirects the startup summary. Nil silences it.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		if w == nil {
			w = io.Discard
		}
		o.summaryOut = w
	}
}
