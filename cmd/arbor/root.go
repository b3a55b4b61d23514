package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor walks and edits yes/no troubleshooting flowcharts",
	Long: `Arbor stores decision-tree flowcharts as JSON documents in object storage.
Play them interactively, edit them node by node, draw them, or serve them over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	sc := cli.NewSignalContext(context.Background())
	defer sc.Cancel()

	if err := rootCmd.ExecuteContext(sc); err != nil {
		if err := cli.HandleExecutionError(err); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Disable logging")
}

// openApp loads the configuration named by the global flags and wires the app.
// The caller closes it.
func openApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger := cli.NewLogger(cfg.Log, debug, quiet)
	return cli.Open(cmd.Context(), cfg, logger)
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, app *cli.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd, app, args)
	}
}

func keyArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
