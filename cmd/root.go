// Package cmd implements the stac-to-geocore command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yml"

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "stac-to-geocore",
		Short: "Harvest a STAC API into GeoCore features",
		Long: `stac-to-geocore reads a STAC API (root, collections and items), translates
every entity into a bilingual GeoCore feature and keeps an object store bucket
in sync with the catalog.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		fmt.Sprintf("config file (default is $CONFIG_PATH or ./%s)", defaultConfigPath),
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newHarvestCommand(),
		newScheduleCommand(),
		newVersionCommand(),
	)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stac-to-geocore version %s\n", Version)
		},
	}
}
