package editor

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Create validates raw and appends it under a fresh id.
func Create(fc *domain.Flowchart, raw RawNode) (*domain.Flowchart, domain.Node, error) {
	raw.ID = ""
	n, err := Validate(raw)
	if err != nil {
		return nil, domain.Node{}, err
	}
	if err := checkUniqueText(fc, n.Text, ""); err != nil {
		return nil, domain.Node{}, err
	}
	out := fc.Clone()
	out.Nodes = append(out.Nodes, n)
	return out, n, nil
}

// Update replaces the fields of node id with the validated input. The id is
// preserved. When the text changes and no other node still carries the old
// text, every link pointing at it is rewritten to the new one.
func Update(fc *domain.Flowchart, id string, raw RawNode) (*domain.Flowchart, domain.Node, error) {
	idx := fc.IndexOf(id)
	if idx < 0 {
		return nil, domain.Node{}, &domain.NotFoundError{Kind: "node", Key: id}
	}
	raw.ID = id
	n, err := Validate(raw)
	if err != nil {
		return nil, domain.Node{}, err
	}
	if err := checkUniqueText(fc, n.Text, id); err != nil {
		return nil, domain.Node{}, err
	}

	out := fc.Clone()
	oldText := out.Nodes[idx].Text
	out.Nodes[idx] = n
	if oldText != n.Text {
		if _, err := out.FindByText(oldText); err != nil {
			relink(out, oldText, n.Text)
		}
	}
	return out, out.Nodes[idx], nil
}

// Delete removes node id and clears every link that pointed at it.
func Delete(fc *domain.Flowchart, id string) (*domain.Flowchart, domain.Node, error) {
	idx := fc.IndexOf(id)
	if idx < 0 {
		return nil, domain.Node{}, &domain.NotFoundError{Kind: "node", Key: id}
	}
	out := fc.Clone()
	removed := out.Nodes[idx]
	out.Nodes = append(out.Nodes[:idx], out.Nodes[idx+1:]...)

	if _, err := out.FindByText(removed.Text); err != nil {
		relink(out, removed.Text, "")
	}
	return out, removed, nil
}

// Connect points field of the source node at target. Target is matched
// against node texts first, then ids; any other value creates a new info node
// with that text. The created node, if any, is returned.
func Connect(fc *domain.Flowchart, sourceID string, field domain.LinkField, target string) (*domain.Flowchart, *domain.Node, error) {
	idx := fc.IndexOf(sourceID)
	if idx < 0 {
		return nil, nil, &domain.NotFoundError{Kind: "node", Key: sourceID}
	}
	source := fc.Nodes[idx]
	if !field.AllowedOn(source.Type) {
		return nil, nil, &domain.ValidationError{Field: string(field), Reason: "not available on " + source.Type + " nodes"}
	}
	target, err := SanitizeText(target)
	if err != nil {
		return nil, nil, &domain.ValidationError{Field: "target", Reason: err.Error()}
	}
	if target == "" {
		return nil, nil, &domain.ValidationError{Field: "target", Reason: "is required"}
	}

	out := fc.Clone()
	var created *domain.Node

	if _, err := out.FindByText(target); err != nil {
		if n, err := out.FindByID(target); err == nil {
			target = n.Text
		} else {
			n := domain.Node{ID: NewID(), Text: target, Type: domain.NodeTypeInfo}
			out.Nodes = append(out.Nodes, n)
			created = &n
		}
	}

	out.Nodes[idx].SetLink(field, target)
	return out, created, nil
}

// Disconnect clears field on the source node.
func Disconnect(fc *domain.Flowchart, sourceID string, field domain.LinkField) (*domain.Flowchart, error) {
	idx := fc.IndexOf(sourceID)
	if idx < 0 {
		return nil, &domain.NotFoundError{Kind: "node", Key: sourceID}
	}
	out := fc.Clone()
	out.Nodes[idx].SetLink(field, "")
	return out, nil
}

// Build validates the nodes of a new flowchart. Ids are kept when given so
// imported documents stay stable.
func Build(name string, raws []RawNode) (*domain.Flowchart, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "please enter a flowchart name"}
	}
	if len(raws) == 0 {
		return nil, &domain.ValidationError{Field: "nodes", Reason: "please add at least one node to the tree"}
	}

	fc := &domain.Flowchart{Name: name}
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		n, err := Validate(raw)
		if err != nil {
			return nil, err
		}
		if seen[n.ID] {
			return nil, &domain.ValidationError{Field: "id", Reason: "duplicate id " + n.ID}
		}
		if err := checkUniqueText(fc, n.Text, ""); err != nil {
			return nil, err
		}
		seen[n.ID] = true
		fc.Nodes = append(fc.Nodes, n)
	}
	return fc, nil
}

func relink(fc *domain.Flowchart, from, to string) {
	for i := range fc.Nodes {
		n := &fc.Nodes[i]
		for _, l := range n.Links() {
			if l.Target == from {
				n.SetLink(l.Field, to)
			}
		}
	}
}

func checkUniqueText(fc *domain.Flowchart, text, exceptID string) error {
	if fc == nil {
		return nil
	}
	for _, n := range fc.Nodes {
		if n.Text == text && n.ID != exceptID {
			return &domain.ValidationError{Field: "text", Reason: "another node already uses this text"}
		}
	}
	return nil
}
