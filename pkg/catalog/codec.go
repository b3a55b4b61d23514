package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// wireDoc is the on-disk shape. Nodes are decoded loosely so hand-written
// documents with numeric ids or null links still load.
type wireDoc struct {
	Name         string           `json:"name" yaml:"name"`
	Nodes        []map[string]any `json:"nodes" yaml:"nodes"`
	CreatedAt    *time.Time       `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	LastModified *time.Time       `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
}

// FormatForKey picks the format from the key extension.
func FormatForKey(key string) string {
	k := strings.ToLower(key)
	if strings.HasSuffix(k, ".yaml") || strings.HasSuffix(k, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Sniff guesses the format of data. JSON documents start with an object.
func Sniff(data []byte) string {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a flowchart document without validating it.
func Decode(data []byte, format string) (*domain.Flowchart, error) {
	var w wireDoc
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &w)
	default:
		err = json.Unmarshal(data, &w)
	}
	if err != nil {
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("invalid flowchart data: %v", err)}
	}

	fc := &domain.Flowchart{
		Name:         w.Name,
		Nodes:        make([]domain.Node, 0, len(w.Nodes)),
		CreatedAt:    w.CreatedAt,
		LastModified: w.LastModified,
	}
	for i, m := range w.Nodes {
		raw, err := editor.DecodeRaw(m)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		fc.Nodes = append(fc.Nodes, domain.Node(raw))
	}
	return fc, nil
}

// Encode renders a flowchart. JSON is indented with two spaces.
func Encode(fc *domain.Flowchart, format string) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(fc)
	}
	return json.MarshalIndent(fc, "", "  ")
}
