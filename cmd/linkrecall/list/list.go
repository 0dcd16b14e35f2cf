// Package listcmder provides the list command.
package listcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	"github.com/Rahi-padwal/linkRecall/pkg/cliui"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
)

type listCommander struct {
	apiTarget string
}

const listLongDesc string = `List saved links, newest first.

Examples:
  linkrecall list
  linkrecall list --user 6f1c0a52-5f0e-4c8e-9b0f-2d1f4c7a9e11`

const listShortDesc string = "List saved links"

func NewListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *listCommander) run(cmd *cobra.Command) error {
	client, err := cmdutil.NewClient(cmd, c.apiTarget)
	if err != nil {
		return err
	}

	userID, err := cmdutil.UserID(cmd, false)
	if err != nil {
		return err
	}

	links, err := client.ListLinks(cmdutil.Context(cmd), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(links) == 0 {
		fmt.Fprintln(out, "No links saved yet.")
		return nil
	}

	fmt.Fprintf(out, "\n%s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d saved", len(links))))
	for _, l := range links {
		cmdutil.RenderLink(out, l)
		fmt.Fprintln(out)
	}
	return nil
}
