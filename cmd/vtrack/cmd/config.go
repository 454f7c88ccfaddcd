package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/vtrack/internal/config"
	"github.com/spf13/cobra"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or generate vtrack configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with all defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.GenerateDefaultConfigFile(path); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			return writeJSON(cmd.OutOrStdout(), GetConfigLoader().GetResolvedConfig())
		}
		return writeJSON(cmd.OutOrStdout(), GetConfig())
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the configuration file in use and the search paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		return GetConfigLoader().PrintConfigInfo(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)

	configShowCmd.Flags().Bool("raw", false, "Print viper's merged settings map instead of the typed configuration")
}
