package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/report"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored play sessions",
	Long:  `List, inspect, export and remove the sessions kept by the configured session backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		sessions, err := app.Player.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Active Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	}),
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		state, _, err := app.Player.Session(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}),
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		var errs []error
		for _, id := range args {
			if err := app.Player.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export the answers of a session",
	Long:  `Prints the question and answer log of a session, or writes it as a PDF report with --pdf.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		state, doc, err := app.Player.Session(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rep := report.Build(doc.Flowchart, state.History)

		path, _ := cmd.Flags().GetString("pdf")
		if path == "" {
			fmt.Fprint(cmd.OutOrStdout(), rep.Text())
			return nil
		}
		if path == "-" {
			path = rep.Filename()
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := rep.WritePDF(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd, exportCmd)

	exportCmd.Flags().String("pdf", "", "Write a PDF report to this path ('-' uses the report title)")
}
