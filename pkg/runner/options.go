package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithHandler configures a custom IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithExitOnEnd stops the loop as soon as a walk ends instead of waiting
// for back, restart or quit.
func WithExitOnEnd(exit bool) Option {
	return func(r *Runner) {
		r.ExitOnEnd = exit
	}
}
