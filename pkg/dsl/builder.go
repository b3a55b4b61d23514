package dsl

import (
	"fmt"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

// Builder collects nodes in insertion order.
type Builder struct {
	name  string
	nodes []*NodeBuilder
	byID  map[string]*NodeBuilder
}

// New creates a builder for a flowchart called name.
func New(name string) *Builder {
	return &Builder{name: name, byID: make(map[string]*NodeBuilder)}
}

// Add returns the node with id, creating it if needed. An empty id is
// replaced by the next free sequential number.
func (b *Builder) Add(id string) *NodeBuilder {
	if id == "" {
		id = b.nextID()
	}
	if nb, ok := b.byID[id]; ok {
		return nb
	}
	nb := &NodeBuilder{raw: editor.RawNode{ID: id, Type: domain.NodeTypeInfo}, builder: b}
	b.nodes = append(b.nodes, nb)
	b.byID[id] = nb
	return nb
}

// Ask adds a yes/no question with a generated id.
func (b *Builder) Ask(text string) *NodeBuilder {
	return b.Add("").Ask(text)
}

// Say adds an info node with a generated id.
func (b *Builder) Say(text string) *NodeBuilder {
	return b.Add("").Say(text)
}

// Build validates the nodes and returns the flowchart.
func (b *Builder) Build() (*domain.Flowchart, error) {
	raws := make([]editor.RawNode, 0, len(b.nodes))
	for _, nb := range b.nodes {
		raws = append(raws, nb.raw)
	}
	fc, err := editor.Build(b.name, raws)
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return fc, nil
}

// MustBuild is like Build but panics on error. Intended for tests and
// package-level fixtures.
func (b *Builder) MustBuild() *domain.Flowchart {
	fc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return fc
}

func (b *Builder) nextID() string {
	for i := len(b.nodes) + 1; ; i++ {
		id := strconv.Itoa(i)
		if _, taken := b.byID[id]; !taken {
			return id
		}
	}
}
