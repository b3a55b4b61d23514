package domain

import "time"

// Flowchart is the persisted document: a named, ordered list of nodes.
type Flowchart struct {
	Name         string     `json:"name" yaml:"name"`
	Nodes        []Node     `json:"nodes" yaml:"nodes"`
	CreatedAt    *time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
}

// Title returns the display name of the flowchart.
func (f *Flowchart) Title() string {
	if f == nil || f.Name == "" {
		return DefaultFlowchartName
	}
	return f.Name
}

// Entry returns the first node, which is where every walk starts.
func (f *Flowchart) Entry() (Node, error) {
	if f == nil || len(f.Nodes) == 0 {
		return Node{}, ErrEmptyFlowchart
	}
	return f.Nodes[0], nil
}

// FindByID returns the node with the given id.
func (f *Flowchart) FindByID(id string) (Node, error) {
	if i := f.IndexOf(id); i >= 0 {
		return f.Nodes[i], nil
	}
	return Node{}, &NotFoundError{Kind: "node", Key: id}
}

// FindByText resolves a link target. The first node whose text matches wins.
func (f *Flowchart) FindByText(text string) (Node, error) {
	if f != nil {
		for _, n := range f.Nodes {
			if n.Text == text {
				return n, nil
			}
		}
	}
	return Node{}, &NotFoundError{Kind: "node", Key: text, ByText: true}
}

// IndexOf returns the position of the node with the given id, or -1.
func (f *Flowchart) IndexOf(id string) int {
	if f == nil {
		return -1
	}
	for i, n := range f.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (f *Flowchart) Clone() *Flowchart {
	if f == nil {
		return nil
	}
	c := *f
	c.Nodes = append([]Node(nil), f.Nodes...)
	if f.CreatedAt != nil {
		t := *f.CreatedAt
		c.CreatedAt = &t
	}
	if f.LastModified != nil {
		t := *f.LastModified
		c.LastModified = &t
	}
	return &c
}

// Document is a flowchart together with its storage identity.
type Document struct {
	Key       string     `json:"key"`
	Version   string     `json:"version,omitempty"`
	Flowchart *Flowchart `json:"flowchart"`
}
