// Package logging configures lgr loggers for the binaries.
package logging

import (
	"io"
	"strings"

	"github.com/go-pkgz/lgr"
)

// Setup routes lgr and the standard library logger to w. Values in secrets
// are masked in every line.
func Setup(level string, w io.Writer, secrets ...string) {
	opts := options(level, w, secrets)
	lgr.Setup(opts...)
	lgr.SetupStdLogger(opts...)
}

// New returns a logger writing to w without touching the global ones.
func New(level string, w io.Writer) lgr.L {
	return lgr.New(options(level, w, nil)...)
}

func IsDebug(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return true
	default:
		return false
	}
}

func options(level string, w io.Writer, secrets []string) []lgr.Option {
	opts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.Out(w), lgr.Secret(secrets...)}
	switch strings.ToLower(level) {
	case "trace":
		opts = append(opts, lgr.Trace, lgr.CallerFunc)
	case "debug":
		opts = append(opts, lgr.Debug, lgr.CallerFunc)
	}
	return opts
}
