/*
Package dsl builds flowcharts in Go code instead of JSON documents.

Links are declared by the text of their target, exactly as they are stored,
so a builder reads like the document it produces:

	b := dsl.New("Printer")

	b.Ask("Is it plugged in?").
		Yes("Does it print?").
		No("Plug it in")

	b.Say("Plug it in").
		Next("Does it print?")

	b.Ask("Does it print?").
		Yes("Done")

	b.Say("Done")

	fc, err := b.Build()

The first node added is the entry of the flowchart. Build runs the same
validation as the editor, so a built flowchart can be saved with
catalog.Repository.Save or played directly.
*/
package dsl
