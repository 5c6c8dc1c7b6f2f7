package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dev.hon.one/netcrawl/common"
)

var (
	rootCmd = &cobra.Command{
		Use:           common.AppName,
		Short:         "Discover network topology by crawling device neighbors",
		Version:       common.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	debug      *bool
	configPath *string
)

func init() {
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Show debug messages.")
	configPath = rootCmd.PersistentFlags().StringP("config", "c", "", "Config file path (JSON or YAML).")

	cobra.OnInitialize(func() {
		if *debug {
			log.SetLevel(log.TraceLevel)
			log.Info("Debug mode enabled")
		}
	})

	rootCmd.AddCommand(newDiscoverCmd(), newTopologyCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
