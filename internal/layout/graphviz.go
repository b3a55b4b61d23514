package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Graphviz lays graphs out with the dot program.
type Graphviz struct {
	// DotPath defaults to "dot" looked up on PATH.
	DotPath string
}

func (gv Graphviz) path() string {
	if gv.DotPath != "" {
		return gv.DotPath
	}
	return "dot"
}

// Available reports whether the dot binary can be found.
func (gv Graphviz) Available() bool {
	_, err := exec.LookPath(gv.path())
	return err == nil
}

// Layout implements Engine.
func (gv Graphviz) Layout(ctx context.Context, g *Graph) error {
	if len(g.Nodes) == 0 {
		return nil
	}
	src, err := EncodeDOT(g, func(_ Node, attrs map[string]string) {
		attrs["width"] = inches(NodeWidth + PadX)
		attrs["height"] = inches(NodeHeight + PadY)
		attrs["fixedsize"] = "true"
	})
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, gv.path(), "-Tplain")
	cmd.Stdin = strings.NewReader(src)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("dot: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	centres, err := parsePlain(out)
	if err != nil {
		return err
	}
	for i := range g.Nodes {
		c, ok := centres[DOTName(i)]
		if !ok {
			return fmt.Errorf("dot: no position for node %s", g.Nodes[i].ID)
		}
		g.Nodes[i].place(c[0], c[1])
	}
	return nil
}

// parsePlain reads node centres from "dot -Tplain" output. Coordinates are
// converted from inches to points, the y axis is flipped to grow downwards
// and the graph is shifted by the margin.
func parsePlain(out []byte) (map[string][2]float64, error) {
	var height float64
	centres := make(map[string][2]float64)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("dot: malformed graph line %q", sc.Text())
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("dot: graph height: %w", err)
			}
			height = h
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("dot: malformed node line %q", sc.Text())
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("dot: bad coordinates in %q", sc.Text())
			}
			name := strings.Trim(fields[1], `"`)
			centres[name] = [2]float64{Margin + x*72, Margin + (height-y)*72}
		case "stop":
			return centres, sc.Err()
		}
	}
	return centres, sc.Err()
}
