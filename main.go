package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"hadoop_monitor/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hadoop_monitor",
		Short: "Collects and stores Hadoop cluster metrics",
		Long: `
hadoop_monitor polls the JMX endpoints of a Hadoop cluster (NameNode,
ResourceManager, JobHistoryServer), stores normalized metric records and
checks the health of every configured service on a fixed schedule.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to the yaml configuration file")

	// Disable Help subcommand
	root.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	root.AddCommand(newServeCmd(), newCollectCmd(), newHealthCmd(), newRecordsCmd())
	return root
}

// loadConfig reads the file given with --config. When the flag is left at its
// default and the file does not exist the built-in defaults are used.
func loadConfig(cmd *cobra.Command) (*config.HadoopMonitorConfig, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		log.Warnf("Config file %s not found, using defaults", configPath)
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(c config.Logging) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	switch strings.ToLower(c.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
