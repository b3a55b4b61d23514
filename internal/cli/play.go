package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/runner"
)

// PlayOptions configures an interactive walk.
type PlayOptions struct {
	// Key selects the flowchart. Empty uses the catalog resolution order.
	Key string
	// SessionID resumes a stored session or names a new one.
	SessionID string
	// Fresh discards the stored session first.
	Fresh bool
	// JSON switches to NDJSON input and output.
	JSON bool
	// Plain disables markdown rendering.
	Plain bool
	// Watch reloads the current node when its document changes.
	Watch bool
	// ExitOnEnd stops once the walk ends.
	ExitOnEnd bool

	In  io.Reader
	Out io.Writer
}

// Play runs the interactive loop until the user quits or ctx is cancelled.
func Play(ctx context.Context, app *App, opts PlayOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Player.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}

	view, resumed, err := app.Player.Resume(ctx, opts.Key, opts.SessionID)
	if err != nil {
		return err
	}

	handler := newHandler(opts)
	if resumed {
		app.Logger.Info("session resumed", "session_id", view.SessionID, "node", view.Node.ID)
		if err := handler.SystemOutput(ctx, fmt.Sprintf("Resuming session '%s'.", view.SessionID)); err != nil {
			return err
		}
	} else {
		app.Logger.Info("session created", "session_id", view.SessionID)
	}

	r := runner.New(
		runner.WithHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithExitOnEnd(opts.ExitOnEnd),
	)

	if !opts.Watch || app.Watcher == nil {
		if opts.Watch {
			app.Logger.Warn("storage backend does not report changes, watch disabled")
		}
		return HandleExecutionError(r.Run(ctx, app.Player, view))
	}
	return playWatching(ctx, app, r, handler, view)
}

func newHandler(opts PlayOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}
	var hopts []runner.TextHandlerOption
	if !opts.Plain {
		hopts = append(hopts, runner.WithTextHandlerRenderer(tui.NewRenderer(tui.TerminalWidth())))
	}
	return runner.NewTextHandler(opts.In, opts.Out, hopts...)
}

// playWatching restarts the loop on a refreshed view each time the
// session's document changes. The handler is shared across iterations so
// pending input is not lost.
func playWatching(ctx context.Context, app *App, r *runner.Runner, handler runner.IOHandler, view *arbor.View) error {
	for {
		runCtx, cancel := context.WithCancel(ctx)
		events, err := app.Watcher.Watch(runCtx)
		if err != nil {
			cancel()
			return err
		}

		reload := make(chan string, 1)
		go func(key string) {
			for changed := range events {
				if changed == key {
					reload <- changed
					cancel()
					return
				}
			}
		}(view.FlowchartKey)

		err = r.Run(runCtx, app.Player, view)
		cancel()

		select {
		case key := <-reload:
			app.Logger.Info("change detected, reloading", "key", key)
			if err := handler.SystemOutput(ctx, fmt.Sprintf("Change detected in '%s'.", key)); err != nil {
				return err
			}
			if view, err = app.Player.View(ctx, view.SessionID); err != nil {
				return err
			}
		default:
			return HandleExecutionError(err)
		}
	}
}
