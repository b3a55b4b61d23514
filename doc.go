/*
Package arbor plays and edits decision trees.

A flowchart is a list of nodes. Yes/no nodes branch on an answer, info nodes
carry a single next link, and links name their target by question text. The
first node is the entry.

# Usage

A Player reads flowcharts from a catalog and persists one state per session:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/adapters/memory"
		"github.com/aretw0/arbor/pkg/catalog"
	)

	func main() {
		ctx := context.Background()
		repo := catalog.New(memory.NewObjectStore())
		// ... import or create a flowchart ...

		player := arbor.New(repo, memory.NewStore())
		view, err := player.Start(ctx, "", "")
		if err != nil {
			log.Fatal(err)
		}
		for !view.IsEnd {
			fmt.Println(view.Node.Text, view.Actions)
			view, err = player.Answer(ctx, view.SessionID, "yes")
			if err != nil {
				log.Fatal(err)
			}
		}
	}

Editing goes through pkg/editor, whose Service validates each change and
writes it back with the version it was loaded at.
*/
package arbor
