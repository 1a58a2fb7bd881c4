// Package cmd implements the aktiva-extract command line interface.
package cmd

import (
	"fmt"

	"github.com/merittools/aktiva-client/pkg/config"
	"github.com/merittools/aktiva-client/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	// cfg is populated before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aktiva-extract",
	Short: "Extract accounting data from the Merit Aktiva API",
	Long: `aktiva-extract pulls master data and transactional records from the
Merit Aktiva accounting API into NDJSON files, staying inside the API's
rate ceiling and resuming incremental resources from a given date.

Credentials come from MERIT_API_ID and MERIT_API_KEY or a config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		level := logging.LogLevel(cfg.Logging.Level)
		if verbose {
			level = logging.LevelDebug
		}
		logging.Setup(logging.Config{
			Level:  level,
			Pretty: cfg.Logging.Pretty,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Println(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./aktiva.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}
