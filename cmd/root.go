// Package cmd implements the tubeq command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the tubeq command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tubeq",
		Short:         "tubeq keeps a library of videos and plays them as a queue.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $XDG_CONFIG_HOME/tubeq/config.toml, then ./config.toml)")

	cfg := func() string { return configPath }
	root.AddCommand(
		newServeCmd(cfg),
		newTracksCmd(cfg),
		newPlaylistsCmd(cfg),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
