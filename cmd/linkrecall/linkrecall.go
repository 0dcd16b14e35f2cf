// Package linkrecallcmder is the root linkrecall command.
package linkrecallcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall/config"
	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	listcmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall/list"
	savecmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall/save"
	searchcmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall/search"
	servecmder "github.com/Rahi-padwal/linkRecall/cmd/linkrecall/serve"
	versioncmder "github.com/Rahi-padwal/linkRecall/cmd/version"
)

const linkrecallLongDesc string = `linkrecall saves web links and finds them again by meaning.

Run the server, then save and search from any shell:
  linkrecall serve                     Run the API server and embedding workers
  linkrecall save <url>                Save a link
  linkrecall list                      List your saved links
  linkrecall search "<query>"          Search your links by meaning`

const linkrecallShortDesc string = "linkrecall - semantic link recall"

func NewLinkRecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "linkrecall",
		Short:        linkrecallShortDesc,
		Long:         linkrecallLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(cmdutil.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(cmdutil.FlagConfigDir, "", "Override the .linkrecall/ directory")
	cmd.PersistentFlags().String(cmdutil.FlagUser, "", "User id to act as (default: the saved profile)")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(savecmder.NewSaveCmd())
	cmd.AddCommand(listcmder.NewListCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
