package logger

import (
	"io"
	"log/slog"
)

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug when true. The liner commands feed
// their --debug flag straight through here.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		} else {
			c.level = slog.LevelInfo
		}
	}
}

// WithJSON selects slog's JSON handler for structured service logs.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithPretty selects the charmbracelet/log handler for colorized terminal
// output. Takes precedence over WithJSON when both are set.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithSource includes source file:line in each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithWriter redirects output to w. CLI commands pass os.Stderr so logs
// stay out of pipeable stdout; the default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters sends output to every w, combined with io.MultiWriter.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}
