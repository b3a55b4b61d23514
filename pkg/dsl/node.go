package dsl

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	raw     editor.RawNode
	builder *Builder
}

// Ask sets the text and makes the node a yes/no question.
func (n *NodeBuilder) Ask(text string) *NodeBuilder {
	n.raw.Type = domain.NodeTypeYesNo
	n.raw.Text = text
	n.raw.Next = ""
	return n
}

// Say sets the text and makes the node an info node.
func (n *NodeBuilder) Say(text string) *NodeBuilder {
	n.raw.Type = domain.NodeTypeInfo
	n.raw.Text = text
	n.raw.Yes, n.raw.No = "", ""
	return n
}

// Sub sets the secondary text.
func (n *NodeBuilder) Sub(subheading string) *NodeBuilder {
	n.raw.Subheading = subheading
	return n
}

// Yes links the yes branch to the node with text target.
func (n *NodeBuilder) Yes(target string) *NodeBuilder {
	n.raw.Yes = target
	return n
}

// No links the no branch to the node with text target.
func (n *NodeBuilder) No(target string) *NodeBuilder {
	n.raw.No = target
	return n
}

// Next links an info node to the node with text target.
func (n *NodeBuilder) Next(target string) *NodeBuilder {
	n.raw.Next = target
	return n
}

// ID returns the id of the node.
func (n *NodeBuilder) ID() string {
	return n.raw.ID
}

// Node returns the node as configured so far, without validation.
func (n *NodeBuilder) Node() domain.Node {
	return domain.Node(n.raw)
}
