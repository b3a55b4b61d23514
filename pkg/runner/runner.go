package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

// Player is the part of arbor.Player the loop needs.
type Player interface {
	Answer(ctx context.Context, sessionID, choice string) (*arbor.View, error)
	Next(ctx context.Context, sessionID string) (*arbor.View, error)
	Back(ctx context.Context, sessionID string) (*arbor.View, error)
	Restart(ctx context.Context, sessionID string) (*arbor.View, error)
}

// Runner handles the interaction loop over a Player.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on stdio.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// ExitOnEnd stops the loop when the walk ends.
	ExitOnEnd bool
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run shows view and processes commands until the user quits, input ends or
// ctx is cancelled. End of input and cancellation are not errors.
func (r *Runner) Run(ctx context.Context, player Player, view *arbor.View) error {
	if view == nil {
		return errors.New("runner: no view to start from")
	}
	if err := r.Handler.Output(ctx, view); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	for {
		if view.IsEnd && r.ExitOnEnd {
			return nil
		}

		input, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Debug("runner stopped", "session_id", view.SessionID, "node_id", view.Node.ID, "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		cmd := ParseCommand(input, view)
		r.Logger.Debug("command", "input", input, "command", cmd)

		var next *arbor.View
		switch cmd {
		case CommandQuit:
			return nil
		case CommandHelp:
			err = r.Handler.SystemOutput(ctx, helpText)
		case CommandHistory:
			err = r.Handler.SystemOutput(ctx, formatHistory(view.History))
		case runtime.ActionYes, runtime.ActionNo:
			next, err = player.Answer(ctx, view.SessionID, cmd)
		case runtime.ActionNext:
			next, err = player.Next(ctx, view.SessionID)
		case runtime.ActionBack:
			next, err = player.Back(ctx, view.SessionID)
		case runtime.ActionRestart:
			next, err = player.Restart(ctx, view.SessionID)
		default:
			err = r.Handler.SystemOutput(ctx, fmt.Sprintf("Unknown command %q. Type ? for help.", input))
		}

		if err != nil {
			if !recoverable(err) {
				return err
			}
			if err := r.Handler.SystemOutput(ctx, "Error: "+err.Error()); err != nil {
				return err
			}
			continue
		}
		if next == nil {
			continue
		}
		view = next
		if err := r.Handler.Output(ctx, view); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// recoverable reports errors the user can act on without leaving the loop.
func recoverable(err error) bool {
	return errors.Is(err, domain.ErrInvalidAction) ||
		errors.Is(err, domain.ErrNodeNotFound) ||
		errors.Is(err, domain.ErrVersionConflict)
}

func formatHistory(history []domain.HistoryEntry) string {
	if len(history) == 0 {
		return "No history yet."
	}
	lines := make([]string, 0, len(history))
	for i, h := range history {
		lines = append(lines, fmt.Sprintf("Q%d: %s -> %s", i+1, h.Question, strings.ToUpper(h.Answer)))
	}
	return strings.Join(lines, "\n")
}
