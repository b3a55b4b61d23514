package editor

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/arbor/pkg/domain"
)

// RawNode is unvalidated node input as it arrives from a form, a request body
// or an imported document.
type RawNode struct {
	ID         string `json:"id,omitempty" mapstructure:"id"`
	Text       string `json:"text" mapstructure:"text"`
	Type       string `json:"type,omitempty" mapstructure:"type"`
	Subheading string `json:"subheading,omitempty" mapstructure:"subheading"`
	Yes        string `json:"yes,omitempty" mapstructure:"yes"`
	No         string `json:"no,omitempty" mapstructure:"no"`
	Next       string `json:"next,omitempty" mapstructure:"next"`
}

// RawFromNode converts a stored node back into editable input.
func RawFromNode(n domain.Node) RawNode {
	return RawNode(n)
}

// DecodeRaw decodes loosely typed input. Numeric ids are accepted and null
// fields become empty strings.
func DecodeRaw(input map[string]any) (RawNode, error) {
	var raw RawNode
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return RawNode{}, err
	}
	clean := make(map[string]any, len(input))
	for k, v := range input {
		if v != nil {
			clean[k] = v
		}
	}
	if err := dec.Decode(clean); err != nil {
		return RawNode{}, &domain.ValidationError{Reason: fmt.Sprintf("malformed node: %v", err)}
	}
	return raw, nil
}

// NewID returns a fresh node identifier.
func NewID() string {
	return uuid.NewString()
}
