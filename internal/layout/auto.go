package layout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
)

// Engine names accepted by New.
const (
	EngineAuto     = "auto"
	EngineGraphviz = "graphviz"
	EngineLayered  = "layered"
)

// Auto prefers Graphviz and falls back to the built-in layered layout when
// dot is missing or fails.
type Auto struct {
	Graphviz Graphviz
	Fallback Layered
	Logger   *slog.Logger
}

// Layout implements Engine.
func (a Auto) Layout(ctx context.Context, g *Graph) error {
	logger := a.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if a.Graphviz.Available() {
		err := a.Graphviz.Layout(ctx, g)
		if err == nil {
			return nil
		}
		logger.Warn("graphviz layout failed, using built-in layout", "err", err)
	}
	return a.Fallback.Layout(ctx, g)
}

// New returns the engine registered under name.
func New(name, dotPath string, logger *slog.Logger) (Engine, error) {
	switch name {
	case "", EngineAuto:
		return Auto{Graphviz: Graphviz{DotPath: dotPath}, Logger: logger}, nil
	case EngineGraphviz:
		return Graphviz{DotPath: dotPath}, nil
	case EngineLayered:
		return Layered{}, nil
	default:
		return nil, fmt.Errorf("unknown layout engine %q", name)
	}
}
