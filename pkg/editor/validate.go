package editor

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Validate normalizes raw input into a node.
//
// Text is required. Type is lowercased and defaults to info. Links that do not
// belong to the type are dropped. A missing id is filled with a fresh one.
func Validate(raw RawNode) (domain.Node, error) {
	text, err := field("text", raw.Text)
	if err != nil {
		return domain.Node{}, err
	}
	if text == "" {
		return domain.Node{}, &domain.ValidationError{Field: "text", Reason: "is required"}
	}

	nodeType := strings.ToLower(strings.TrimSpace(raw.Type))
	if nodeType == "" {
		nodeType = domain.NodeTypeInfo
	}
	if nodeType != domain.NodeTypeInfo && nodeType != domain.NodeTypeYesNo {
		return domain.Node{}, &domain.ValidationError{Field: "type", Reason: "must be yesno or info"}
	}

	n := domain.Node{
		ID:   strings.TrimSpace(raw.ID),
		Text: text,
		Type: nodeType,
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.Subheading, err = field("subheading", raw.Subheading); err != nil {
		return domain.Node{}, err
	}

	switch nodeType {
	case domain.NodeTypeYesNo:
		if n.Yes, err = field("yes", raw.Yes); err != nil {
			return domain.Node{}, err
		}
		if n.No, err = field("no", raw.No); err != nil {
			return domain.Node{}, err
		}
	case domain.NodeTypeInfo:
		if n.Next, err = field("next", raw.Next); err != nil {
			return domain.Node{}, err
		}
	}
	return n, nil
}

func field(name, value string) (string, error) {
	s, err := SanitizeText(value)
	if err != nil {
		return "", &domain.ValidationError{Field: name, Reason: err.Error()}
	}
	return s, nil
}
