// Package cmdutil holds the plumbing shared by the linkrecall subcommands:
// logger construction, API client resolution and the CLI user identity.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Rahi-padwal/linkRecall/pkg/apiclient"
	"github.com/Rahi-padwal/linkRecall/pkg/config"
	"github.com/Rahi-padwal/linkRecall/pkg/dotdir"
	"github.com/Rahi-padwal/linkRecall/pkg/logger"
)

// Persistent flag names defined on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagUser      = "user"
)

// ConfigDir returns the --config-dir override, or "".
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString(FlagConfigDir)
	return dir
}

// NewLogger builds the command logger. Output is colorized when stdout is
// a terminal.
func NewLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(IsTerminal(os.Stdout)),
		logger.WithWriter(w),
	)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewClient resolves the API target (flag, then config) and returns a client.
func NewClient(cmd *cobra.Command, apiTarget string) (*apiclient.Client, error) {
	if !cmd.Flags().Changed(config.FlagAPITarget) {
		cfger, err := config.NewConfiger(ConfigDir(cmd))
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg, err := cfger.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		apiTarget = cfg.Client.APITarget
	}
	return apiclient.New(apiTarget, nil)
}

// UserID resolves the CLI identity: the --user flag, then the saved
// profile. When create is set and neither exists, a new id is generated and
// saved to the profile.
func UserID(cmd *cobra.Command, create bool) (string, error) {
	if id, _ := cmd.Flags().GetString(FlagUser); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return "", fmt.Errorf("--user must be a UUID: %w", err)
		}
		return id, nil
	}

	ddm := dotdir.NewManager()
	profile, err := ddm.LoadProfile(ConfigDir(cmd))
	if err != nil {
		return "", err
	}
	if profile != nil && profile.UserID != "" {
		return profile.UserID, nil
	}

	if !create {
		return "", fmt.Errorf("no user id: pass --%s or save a link first", FlagUser)
	}

	id := uuid.NewString()
	if err := ddm.SaveProfile(&dotdir.Profile{UserID: id}, ConfigDir(cmd)); err != nil {
		return "", fmt.Errorf("saving profile: %w", err)
	}
	return id, nil
}

// Context returns the command context, or context.Background when the
// command was executed without one.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
