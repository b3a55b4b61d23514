/*
Package runner drives an interactive walk over a flowchart.

The runner reads commands through a pluggable IOHandler, applies them to a
Player and shows the resulting view. Errors caused by the walk itself, such as
answering a question that has ended or following a link to a deleted node, are
reported to the user and the loop continues.

# Usage

	view, _, err := player.Resume(ctx, "", "user-1")
	if err != nil {
		log.Fatal(err)
	}
	r := runner.New(runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	if err := r.Run(ctx, player, view); err != nil {
		log.Fatal(err)
	}
*/
package runner
