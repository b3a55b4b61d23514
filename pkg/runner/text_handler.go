package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/editor"
)

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
	lastNode  string
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the reader goroutine so Input can honour cancellation
// while a read is blocked.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Output writes the node text and the available actions. The node body is
// only repeated when the node changed.
func (h *TextHandler) Output(ctx context.Context, v *arbor.View) error {
	if v.Node.ID != h.lastNode || v.IsEnd {
		h.lastNode = v.Node.ID
		if h.Renderer != nil {
			out, err := h.Renderer(tui.NodeMarkdown(v))
			if err == nil {
				fmt.Fprintln(h.Writer, strings.TrimRight(out, "\n"))
			} else {
				h.writePlain(v)
			}
		} else {
			h.writePlain(v)
		}
	}

	opts := make([]string, 0, len(v.Actions))
	for i, a := range v.Actions {
		opts = append(opts, fmt.Sprintf("[%d] %s", i+1, a))
	}
	_, err := fmt.Fprintln(h.Writer, strings.Join(opts, "  "))
	return err
}

func (h *TextHandler) writePlain(v *arbor.View) {
	fmt.Fprintf(h.Writer, "== %s ==\n", v.Title)
	fmt.Fprintln(h.Writer, v.Node.Text)
	if v.Node.Subheading != "" {
		fmt.Fprintf(h.Writer, "  (%s)\n", v.Node.Subheading)
	}
	if v.IsEnd {
		fmt.Fprintln(h.Writer, "-- End of the flowchart --")
	}
}

// Input reads one sanitized line. Oversized or malformed lines are rejected
// and the prompt is shown again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := editor.SanitizeText(res.text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// SystemOutput writes a meta-message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, ">>> %s\n", msg)
	return err
}
