// Package cmd implements the command-line interface for powerdraw.
// It provides the root command and subcommands for serving the API,
// running one-shot syncs, and rendering statistics.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdhttpd "github.com/jonesrussell/powerdraw/cmd/httpd"
	cmdstats "github.com/jonesrussell/powerdraw/cmd/stats"
	cmdsync "github.com/jonesrussell/powerdraw/cmd/sync"
	"github.com/jonesrussell/powerdraw/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	// rootCmd represents the root command for the powerdraw CLI.
	rootCmd = &cobra.Command{
		Use:   "powerdraw",
		Short: "Powerball draw ingestion and statistics",
		Long:  `Ingests Powerball draw results from upstream sources and serves descriptive statistics over them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available.
	_ = godotenv.Load()

	// Parse flags early so --config and --debug apply before viper init.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

// initConfig wires the config file flag into viper and initializes it.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := config.InitializeViper(); err != nil {
		return err
	}

	if debug {
		viper.Set("log.level", "debug")
		viper.Set("log.development", true)
	}

	return nil
}

// init initializes the root command and its subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml, ./config/config.yaml, or /etc/powerdraw/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("powerdraw version %s\n", version)
		},
	})

	rootCmd.AddCommand(cmdhttpd.Command())
	rootCmd.AddCommand(cmdsync.Command())
	rootCmd.AddCommand(cmdstats.Command())
}
