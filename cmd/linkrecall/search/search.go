// Package searchcmder provides the search command for semantic search over
// saved links.
package searchcmder

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	apisearch "github.com/Rahi-padwal/linkRecall/api/search"
	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
)

var (
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type searchCommander struct {
	query string
	quiet bool

	apiTarget string
}

const searchLongDesc string = `Search saved links by meaning via the linkrecall API.

Returns the links whose embeddings are closest to the query, nearest first.
The score is the cosine distance: 0 is identical, smaller is closer. Links
that have not been embedded yet are not searched.

Use --quiet to print only URLs, one per line.

Examples:
  linkrecall search "structured logging in go"
  linkrecall search "cats and dogs" --quiet`

const searchShortDesc string = "Search saved links"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only URLs, one per line")
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	client, err := cmdutil.NewClient(cmd, c.apiTarget)
	if err != nil {
		return err
	}

	userID, err := cmdutil.UserID(cmd, false)
	if err != nil {
		return err
	}

	output, err := client.Search(cmdutil.Context(cmd), c.query, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.quiet {
		for _, r := range output.Results {
			fmt.Fprintln(out, r.OriginalURL)
		}
		return nil
	}

	if output.Count == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	RenderResults(out, output)
	return nil
}

// RenderResults prints ranked search results.
func RenderResults(w io.Writer, output *apisearch.SearchOutput) {
	fmt.Fprintf(w, "\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		queryStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, r := range output.Results {
		title := r.Title
		if title == "" {
			title = r.OriginalURL
		}
		fmt.Fprintf(w, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("[%d]", i+1)),
			titleStyle.Render(title),
			scoreStyle.Render(fmt.Sprintf("(distance: %.4f)", r.Score)),
		)
		fmt.Fprintf(w, "    %s\n\n", urlStyle.Render(r.OriginalURL))
	}
}
