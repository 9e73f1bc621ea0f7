package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridwatch/outage-notifier/internal/config"
	"github.com/gridwatch/outage-notifier/internal/log"
	"github.com/gridwatch/outage-notifier/internal/version"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "outage-notifier",
	Short: "Watch DEDDIE power outages and notify what changed",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
}

// initialize parses the configuration and sets the logger up.
func initialize(cmd *cobra.Command, _ []string) error {
	var err error

	conf, err = config.Parse(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
	}

	// Init logger
	err = log.Init(conf.Logs)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	logger := log.Logger()

	// Dump generic information
	logger.Info("Starting outage notifier",
		"command", cmd.Name(),
		"version", version.Info(),
		"buildContext", version.BuildContext(),
	)
	logger.Info("Using config", "config", fmt.Sprintf("%+v", *conf))

	return nil
}
