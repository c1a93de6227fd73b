package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "liquidation-tracker",
	Short: "Aave liquidation event tracker",
	Long: `liquidation-tracker observes LiquidationCall events emitted by the Aave v3
pool on Base, values the seized collateral and repaid debt in USD via the
protocol price oracle, and persists the results to PostgreSQL.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
