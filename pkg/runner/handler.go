package runner

import (
	"context"

	"github.com/aretw0/arbor"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the current view.
	Output(ctx context.Context, v *arbor.View) error

	// Input reads the next command.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, history, help).
	SystemOutput(ctx context.Context, msg string) error
}
