package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/arbor/internal/runtime"
)

const defaultWidth = 80

// TerminalWidth returns the width of stdout, or a default when it is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// NewRenderer returns a function that renders markdown using glamour,
// word-wrapped to width.
func NewRenderer(width int) func(string) (string, error) {
	if width <= 0 {
		width = defaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return r.Render
}

// NodeMarkdown formats the current node of a view as markdown.
func NodeMarkdown(v *runtime.View) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", v.Title)
	fmt.Fprintf(&sb, "## %s\n", v.Node.Text)
	if v.Node.Subheading != "" {
		fmt.Fprintf(&sb, "\n_%s_\n", v.Node.Subheading)
	}
	if v.IsEnd {
		sb.WriteString("\n**End of the flowchart.**\n")
	}
	return sb.String()
}
