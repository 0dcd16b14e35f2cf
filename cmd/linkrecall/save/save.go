// Package savecmder provides the save command, which submits a link to the
// running linkrecall API server.
package savecmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rahi-padwal/linkRecall/api"
	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	"github.com/Rahi-padwal/linkRecall/pkg/cliui"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
)

type saveCommander struct {
	url      string
	title    string
	summary  string
	keywords []string

	apiTarget string
}

const saveLongDesc string = `Save a link.

The link is stored right away. When no title or summary is given the server
reads them from the page. The link becomes searchable once the server has
embedded it, usually within a few seconds.

The first save without --user generates a user id and remembers it in
.linkrecall/profile.json.

Examples:
  linkrecall save https://go.dev/blog/slog
  linkrecall save https://example.com --title "Example" --keyword demo --keyword test`

const saveShortDesc string = "Save a link"

func NewSaveCmd() *cobra.Command {
	cmder := &saveCommander{}

	cmd := &cobra.Command{
		Use:   "save <url>",
		Short: saveShortDesc,
		Long:  saveLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.url = args[0]
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.title, "title", "t", "", "Title to store instead of the page title")
	cmd.Flags().StringVar(&cmder.summary, "summary", "", "Summary to store instead of the page description")
	cmd.Flags().StringSliceVarP(&cmder.keywords, "keyword", "k", nil, "Keyword to attach (repeatable)")
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *saveCommander) run(cmd *cobra.Command) error {
	client, err := cmdutil.NewClient(cmd, c.apiTarget)
	if err != nil {
		return err
	}

	userID, err := cmdutil.UserID(cmd, true)
	if err != nil {
		return err
	}

	req := api.CreateLinkRequest{
		OriginalURL: strings.TrimSpace(c.url),
		Title:       link.StringPtr(c.title),
		Summary:     link.StringPtr(c.summary),
		Keywords:    c.keywords,
		UserID:      userID,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	var saved *link.Link
	err = cliui.Step(out, "Saving "+req.OriginalURL, func() error {
		var err error
		saved, err = client.SaveLink(cmdutil.Context(cmd), req)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	cmdutil.RenderLink(out, saved)
	fmt.Fprintln(out)
	return nil
}
