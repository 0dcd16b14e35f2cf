package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Rahi-padwal/linkRecall/cmd/linkrecall/cmdutil"
	"github.com/Rahi-padwal/linkRecall/pkg/cliui"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from the config.toml file stored in the
.linkrecall/ directory, falling back to the default.

Examples:
  linkrecall config get storage.provider
  linkrecall config get search.max_distance`

const getShortDesc string = "Get a configuration value"

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "get <key>",
		Short:             getShortDesc,
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.OutOrStdout(), args[0], cmdutil.ConfigDir(cmd))
		},
	}

	return cmd
}

func runGet(w io.Writer, key, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return unknownKeyError(key)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger)

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n\n", cliui.KeyValue(key, value))
	return nil
}
