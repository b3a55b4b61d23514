package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
)

// ExampleNew walks a flowchart defined in Go and stored in memory.
func ExampleNew() {
	ctx := context.Background()

	b := dsl.New("Router")
	b.Ask("Are the lights on?").Yes("Restart the router").No("Check the power cable")
	b.Say("Check the power cable").Next("Restart the router")
	b.Say("Restart the router")

	repo := catalog.New(memory.NewObjectStore())
	if err := repo.Save(ctx, &domain.Document{Key: catalog.DefaultKey, Flowchart: b.MustBuild()}); err != nil {
		log.Fatal(err)
	}
	player := arbor.New(repo, memory.NewStore())

	v, err := player.Start(ctx, "", "example")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Node.Text)

	if v, err = player.Answer(ctx, "example", "no"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Node.Text)

	if v, err = player.Next(ctx, "example"); err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Node.Text, v.IsEnd)

	// Output:
	// Are the lights on?
	// Check the power cable
	// Restart the router true
}
