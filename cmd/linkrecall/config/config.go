// Package configcmder provides the config command for managing persistent
// linkrecall configuration stored in the .linkrecall/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Rahi-padwal/linkRecall/pkg/cliui"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
)

const configLongDesc string = `Manage persistent linkrecall configuration.

Configuration is stored as config.toml in the .linkrecall/ directory and
provides default values for command flags. CLI flags and LINKRECALL_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example
storage.provider, embedding.model, search.max_distance or ingest.workers.
Run "linkrecall config list" to see them all.

Use subcommands to get, set, or list configuration values:
  linkrecall config set <key> <value>    Set a configuration value
  linkrecall config get <key>            Get a configuration value
  linkrecall config list                 List all configuration values

Examples:
  linkrecall config set storage.provider postgres
  linkrecall config set search.max_distance 0.4
  linkrecall config get embedding.model
  linkrecall config list`

const configShortDesc string = "Manage persistent linkrecall configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nRun \"linkrecall config list\" to see valid keys", key)
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
