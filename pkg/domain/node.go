package domain

import "strings"

// NodeType constants define how a node is answered.
const (
	// NodeTypeYesNo is a question with a yes and a no branch.
	NodeTypeYesNo = "yesno"
	// NodeTypeInfo displays content and continues through its next link.
	NodeTypeInfo = "info"
)

// LinkField names one of the outgoing link slots of a node.
type LinkField string

const (
	LinkYes  LinkField = "yes"
	LinkNo   LinkField = "no"
	LinkNext LinkField = "next"
)

// ParseLinkField validates a field name coming from a caller.
func ParseLinkField(s string) (LinkField, error) {
	switch f := LinkField(strings.ToLower(strings.TrimSpace(s))); f {
	case LinkYes, LinkNo, LinkNext:
		return f, nil
	}
	return "", &ValidationError{Field: "field", Reason: "must be one of yes, no, next"}
}

// AllowedOn reports whether the field may be populated on a node of the given type.
func (f LinkField) AllowedOn(nodeType string) bool {
	if f == LinkNext {
		return nodeType == NodeTypeInfo
	}
	return nodeType == NodeTypeYesNo
}

// Node is a single step of a flowchart.
//
// Yes, No and Next hold the text of the target node, not its id. An empty
// value means the branch is not connected.
type Node struct {
	ID         string `json:"id" yaml:"id" mapstructure:"id"`
	Text       string `json:"text" yaml:"text" mapstructure:"text"`
	Type       string `json:"type" yaml:"type" mapstructure:"type"`
	Subheading string `json:"subheading,omitempty" yaml:"subheading,omitempty" mapstructure:"subheading"`
	Yes        string `json:"yes,omitempty" yaml:"yes,omitempty" mapstructure:"yes"`
	No         string `json:"no,omitempty" yaml:"no,omitempty" mapstructure:"no"`
	Next       string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
}

// IsTerminal reports whether reaching the node ends the walk.
func (n Node) IsTerminal() bool {
	return n.Type != NodeTypeYesNo && n.Next == ""
}

// Link returns the target text stored in field.
func (n Node) Link(field LinkField) string {
	switch field {
	case LinkYes:
		return n.Yes
	case LinkNo:
		return n.No
	case LinkNext:
		return n.Next
	}
	return ""
}

// SetLink stores target in field.
func (n *Node) SetLink(field LinkField, target string) {
	switch field {
	case LinkYes:
		n.Yes = target
	case LinkNo:
		n.No = target
	case LinkNext:
		n.Next = target
	}
}

// Links returns the populated link slots in yes, no, next order.
func (n Node) Links() []Link {
	var out []Link
	for _, f := range []LinkField{LinkYes, LinkNo, LinkNext} {
		if t := n.Link(f); t != "" {
			out = append(out, Link{Field: f, Target: t})
		}
	}
	return out
}

// Link is a populated outgoing slot.
type Link struct {
	Field  LinkField
	Target string
}
