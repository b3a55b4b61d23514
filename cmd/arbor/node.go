package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Edit the nodes of a flowchart",
	Long:  `Adds, updates, removes and connects nodes. Every command edits the flowchart named by --key, or the last opened one.`,
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a node",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		key, opts, err := editTarget(cmd, app)
		if err != nil {
			return err
		}
		raw := rawFromFlags(cmd)
		raw.Text = args[0]
		res, err := app.Editor.CreateNode(cmd.Context(), key, raw, opts...)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	}),
}

var nodeUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the fields of a node",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		key, opts, err := editTarget(cmd, app)
		if err != nil {
			return err
		}
		doc, err := app.Catalog.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		current, err := doc.Flowchart.FindByID(args[0])
		if err != nil {
			return err
		}

		// Flags left unset keep the stored value.
		raw := editor.RawFromNode(current)
		changed := rawFromFlags(cmd)
		for name, dst := range map[string]*string{
			"text": &raw.Text, "type": &raw.Type, "subheading": &raw.Subheading,
			"yes": &raw.Yes, "no": &raw.No, "next": &raw.Next,
		} {
			if cmd.Flags().Changed(name) {
				*dst = fieldOf(changed, name)
			}
		}

		res, err := app.Editor.UpdateNode(cmd.Context(), key, args[0], raw, opts...)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	}),
}

var nodeRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a node and clear links to it",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		key, opts, err := editTarget(cmd, app)
		if err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			ok, err := confirm(cmd, fmt.Sprintf("Delete node %s and clear every link to it? [y/N] ", args[0]))
			if err != nil || !ok {
				return err
			}
		}
		res, err := app.Editor.DeleteNode(cmd.Context(), key, args[0], opts...)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	}),
}

var nodeConnectCmd = &cobra.Command{
	Use:   "connect <id> <yes|no|next> [target]",
	Short: "Link a node to another by text",
	Long: `Sets a link of a node. A target that matches no node text creates a new node.
Without a target the link is cleared.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: withApp(func(cmd *cobra.Command, app *cli.App, args []string) error {
		key, opts, err := editTarget(cmd, app)
		if err != nil {
			return err
		}
		field, err := domain.ParseLinkField(args[1])
		if err != nil {
			return err
		}

		var res *editor.Result
		if len(args) == 3 && args[2] != "" {
			res, err = app.Editor.Connect(cmd.Context(), key, args[0], field, args[2], opts...)
		} else {
			res, err = app.Editor.Disconnect(cmd.Context(), key, args[0], field, opts...)
		}
		if err != nil {
			return err
		}
		if res.Created != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Created node %s: %s\n", res.Created.ID, res.Created.Text)
		}
		return printResult(cmd, res)
	}),
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeAddCmd, nodeUpdateCmd, nodeRmCmd, nodeConnectCmd)

	nodeCmd.PersistentFlags().StringP("key", "k", "", "Flowchart key")
	nodeCmd.PersistentFlags().String("if-match", "", "Only edit if the stored version matches")

	for _, c := range []*cobra.Command{nodeAddCmd, nodeUpdateCmd} {
		c.Flags().String("type", domain.NodeTypeYesNo, "Node type: yesno or info")
		c.Flags().String("subheading", "", "Secondary text")
		c.Flags().String("yes", "", "Text of the node reached on yes")
		c.Flags().String("no", "", "Text of the node reached on no")
		c.Flags().String("next", "", "Text of the node reached on next")
	}
	nodeUpdateCmd.Flags().String("text", "", "New node text")
	nodeRmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

// editTarget resolves the document to edit and the edit preconditions.
func editTarget(cmd *cobra.Command, app *cli.App) (string, []editor.EditOption, error) {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		doc, err := app.Document(cmd.Context(), "")
		if err != nil {
			return "", nil, err
		}
		key = doc.Key
	}
	var opts []editor.EditOption
	if v, _ := cmd.Flags().GetString("if-match"); v != "" {
		opts = append(opts, editor.IfMatch(v))
	}
	return key, opts, nil
}

func rawFromFlags(cmd *cobra.Command) editor.RawNode {
	var raw editor.RawNode
	raw.Text, _ = cmd.Flags().GetString("text")
	raw.Type, _ = cmd.Flags().GetString("type")
	raw.Subheading, _ = cmd.Flags().GetString("subheading")
	raw.Yes, _ = cmd.Flags().GetString("yes")
	raw.No, _ = cmd.Flags().GetString("no")
	raw.Next, _ = cmd.Flags().GetString("next")
	return raw
}

func fieldOf(raw editor.RawNode, name string) string {
	switch name {
	case "text":
		return raw.Text
	case "type":
		return raw.Type
	case "subheading":
		return raw.Subheading
	case "yes":
		return raw.Yes
	case "no":
		return raw.No
	case "next":
		return raw.Next
	}
	return ""
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
	return false, nil
}

func printResult(cmd *cobra.Command, res *editor.Result) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message)
	if res.Node != nil {
		fmt.Fprintf(out, "  %s [%s] %s\n", res.Node.ID, res.Node.Type, res.Node.Text)
	}
	fmt.Fprintf(out, "  version %s\n", res.Document.Version)
	return nil
}
