package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/runtime"
)

// Commands understood by the loop in addition to the view actions.
const (
	CommandHistory = "history"
	CommandHelp    = "help"
	CommandQuit    = "quit"
)

var aliases = map[string]string{
	"y":        runtime.ActionYes,
	"yes":      runtime.ActionYes,
	"n":        runtime.ActionNo,
	"no":       runtime.ActionNo,
	"next":     runtime.ActionNext,
	"c":        runtime.ActionNext,
	"continue": runtime.ActionNext,
	"b":        runtime.ActionBack,
	"back":     runtime.ActionBack,
	"r":        runtime.ActionRestart,
	"restart":  runtime.ActionRestart,
	"h":        CommandHistory,
	"history":  CommandHistory,
	"?":        CommandHelp,
	"help":     CommandHelp,
	"q":        CommandQuit,
	"quit":     CommandQuit,
	"exit":     CommandQuit,
}

// ParseCommand maps user input to a command. A number picks the matching
// entry of the view's actions, and an empty line continues an info node.
// Unknown input yields "".
func ParseCommand(input string, v *arbor.View) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		if v != nil && len(v.Actions) > 0 && v.Actions[0] == runtime.ActionNext {
			return runtime.ActionNext
		}
		return ""
	}
	if i, err := strconv.Atoi(in); err == nil {
		if v != nil && i >= 1 && i <= len(v.Actions) {
			return v.Actions[i-1]
		}
		return ""
	}
	return aliases[in]
}

const helpText = `Commands:
  y, yes       answer yes
  n, no        answer no
  c, next      continue (or press enter)
  b, back      undo the last answer
  r, restart   start over
  h, history   show the answers so far
  q, quit      leave (the session is kept)
  1..9         pick an action by number`
