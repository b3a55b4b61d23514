package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

var playCmd = &cobra.Command{
	Use:   "play [key]",
	Short: "Walk a flowchart interactively",
	Long: `Plays the flowchart stored under key, or the last opened one when key is omitted.
With --session the walk is stored and resumed on the next run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		opts := cli.PlayOptions{Key: keyArg(args)}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.ExitOnEnd, _ = cmd.Flags().GetBool("exit-on-end")

		if opts.Watch && opts.JSON {
			return errors.New("--watch and --json cannot be used together")
		}
		opts.In = cmd.InOrStdin()
		opts.Out = cmd.OutOrStdout()
		return cli.Play(cmd.Context(), app, opts)
	}),
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("session", "s", "", "Session id to resume or create")
	playCmd.Flags().Bool("fresh", false, "Discard the stored session and start over")
	playCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	playCmd.Flags().Bool("plain", false, "Print plain text instead of rendered markdown")
	playCmd.Flags().BoolP("watch", "w", false, "Reload the current node when the document changes")
	playCmd.Flags().Bool("exit-on-end", false, "Exit once the end of the flowchart is reached")

	rootCmd.RunE = playCmd.RunE
	rootCmd.Flags().AddFlagSet(playCmd.Flags())
}
