// Package cmd implements the openevt command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/brg2/OpenEVT/config"
)

var cfgPath string

// version is stamped by the linker on release builds.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "openevt",
	Short:   "Series-hybrid powertrain simulator",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configured file. When the default path is simply
// absent the stock configuration is used; an explicit --config that does
// not exist is an error.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && !rootCmd.PersistentFlags().Changed("config") {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
