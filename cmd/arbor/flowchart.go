package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored flowcharts",
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		entries, err := app.Catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No named flowcharts found. The default document is '%s'.\n", app.Catalog.DefaultKey())
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKEY\tMODIFIED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.DisplayName, e.Key, e.LastModified.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	}),
}

var showCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print a flowchart document",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		doc, err := app.Document(cmd.Context(), keyArg(args))
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		data, err := catalog.Encode(doc.Flowchart, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}),
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a named flowchart",
	Long:  `Creates a flowchart under the named prefix. Nodes are taken from --from, or the flowchart starts with a single question.`,
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		raws := []editor.RawNode{{Text: "Start here", Type: domain.NodeTypeYesNo}}
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			data, err := os.ReadFile(from)
			if err != nil {
				return err
			}
			parsed, err := catalog.Decode(data, catalog.Sniff(data))
			if err != nil {
				return err
			}
			raws = raws[:0]
			for _, n := range parsed.Nodes {
				raws = append(raws, editor.RawFromNode(n))
			}
		}
		res, err := app.Editor.NewFlowchart(cmd.Context(), args[0], raws)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Key: %s\n", res.Message, res.Document.Key)
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a flowchart document from disk",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		key, _ := cmd.Flags().GetString("key")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		doc, err := app.Catalog.Import(cmd.Context(), key, data, overwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported '%s' (%d nodes) as %s\n", doc.Flowchart.Title(), len(doc.Flowchart.Nodes), doc.Key)
		return nil
	}),
}

var checkCmd = &cobra.Command{
	Use:   "check [key]",
	Short: "Check a flowchart for broken links and unreachable nodes",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		doc, err := app.Document(cmd.Context(), keyArg(args))
		if err != nil {
			return err
		}
		issues := editor.Check(doc.Flowchart)
		out := cmd.OutOrStdout()
		if len(issues) == 0 {
			fmt.Fprintf(out, "'%s' is valid! ✅\n", doc.Key)
			return nil
		}
		for _, is := range issues {
			if is.NodeID != "" {
				fmt.Fprintf(out, "%-7s %-15s node %s: %s\n", is.Severity, is.Code, is.NodeID, is.Message)
			} else {
				fmt.Fprintf(out, "%-7s %-15s %s\n", is.Severity, is.Code, is.Message)
			}
		}
		if editor.HasErrors(issues) {
			return fmt.Errorf("'%s' has errors", doc.Key)
		}
		return nil
	}),
}

var graphCmd = &cobra.Command{
	Use:   "graph [key]",
	Short: "Export the flowchart as a diagram",
	Long:  `Outputs a Mermaid (default) or Graphviz DOT diagram. With --session the nodes the session visited are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		sessionID, _ := cmd.Flags().GetString("session")

		var (
			doc     *domain.Document
			overlay *graph.GraphOverlay
			err     error
		)
		if sessionID != "" {
			var state *domain.State
			state, doc, err = app.Player.Session(ctx, sessionID)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromState(state)
		} else if doc, err = app.Document(ctx, keyArg(args)); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(doc.Flowchart, overlay))
			return nil
		case "dot":
			s, err := graph.GenerateDOT(doc.Flowchart, overlay)
			if err != nil {
				return err
			}
			fmt.Fprint(out, s)
			return nil
		default:
			return fmt.Errorf("unknown format %q, supported: mermaid, dot", format)
		}
	}),
}

var layoutCmd = &cobra.Command{
	Use:   "layout [key]",
	Short: "Print node positions and edges as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		doc, err := app.Document(cmd.Context(), keyArg(args))
		if err != nil {
			return err
		}
		g := layout.Build(doc.Flowchart)
		if err := app.Layout.Layout(cmd.Context(), g); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}),
}

func init() {
	rootCmd.AddCommand(lsCmd, showCmd, newCmd, importCmd, checkCmd, graphCmd, layoutCmd)

	showCmd.Flags().String("format", catalog.FormatJSON, "Output format: json or yaml")
	newCmd.Flags().String("from", "", "Read the nodes from a JSON or YAML document")
	importCmd.Flags().String("key", "", "Storage key (derived from the document name when empty)")
	importCmd.Flags().Bool("overwrite", false, "Replace an existing document")
	graphCmd.Flags().String("format", "mermaid", "Diagram format: mermaid or dot")
	graphCmd.Flags().String("session", "", "Highlight the path of a session")
}
