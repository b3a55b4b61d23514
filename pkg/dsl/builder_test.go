package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("Printer")

	b.Ask("Is it plugged in?").
		Sub("Check the wall socket").
		Yes("Does it print?").
		No("Plug it in")

	b.Say("Plug it in").
		Next("Does it print?")

	b.Ask("Does it print?").
		Yes("Done")

	b.Say("Done")

	fc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if fc.Name != "Printer" {
		t.Errorf("Expected name 'Printer', got '%s'", fc.Name)
	}
	if len(fc.Nodes) != 4 {
		t.Fatalf("Expected 4 nodes, got %d", len(fc.Nodes))
	}

	entry, err := fc.Entry()
	if err != nil {
		t.Fatalf("Entry() failed: %v", err)
	}
	if entry.ID != "1" || entry.Type != domain.NodeTypeYesNo {
		t.Errorf("Expected entry 1 of type yesno, got %s of type %s", entry.ID, entry.Type)
	}
	if entry.Subheading != "Check the wall socket" {
		t.Errorf("Expected subheading, got '%s'", entry.Subheading)
	}

	info, err := fc.FindByText("Plug it in")
	if err != nil {
		t.Fatalf("FindByText failed: %v", err)
	}
	if info.ID != "2" || info.Next != "Does it print?" {
		t.Errorf("Unexpected info node: %+v", info)
	}

	if issues := editor.Check(fc); len(issues) != 0 {
		t.Errorf("Expected a clean flowchart, got %v", issues)
	}
}

func TestBuilder_ExplicitIDs(t *testing.T) {
	b := New("Kettle")
	b.Add("start").Ask("Is it on?").Yes("Wait").No("Wait")
	b.Add("wait").Say("Wait")

	// Add returns the existing node for a known id.
	b.Add("start").Sub("Look at the light")

	fc := b.MustBuild()
	if len(fc.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(fc.Nodes))
	}
	if fc.Nodes[0].ID != "start" || fc.Nodes[0].Subheading != "Look at the light" {
		t.Errorf("Unexpected first node: %+v", fc.Nodes[0])
	}

	// Generated ids skip taken ones.
	b2 := New("Ids")
	b2.Add("1").Say("First")
	n := b2.Say("Second")
	if n.ID() != "2" {
		t.Errorf("Expected generated id '2', got '%s'", n.ID())
	}
}

func TestBuilder_SwitchingTypeClearsLinks(t *testing.T) {
	b := New("Switch")
	n := b.Ask("Question").Yes("A").No("B").Say("Now info")
	if got := n.Node(); got.Yes != "" || got.No != "" || got.Type != domain.NodeTypeInfo {
		t.Errorf("Expected yes/no links to be cleared, got %+v", got)
	}
}

func TestBuilder_Invalid(t *testing.T) {
	if _, err := New("").Build(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for empty name, got %v", err)
	}

	b := New("Dupes")
	b.Say("Same")
	b.Say("Same")
	if _, err := b.Build(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for duplicate text, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected MustBuild to panic")
		}
	}()
	New("Empty").MustBuild()
}
