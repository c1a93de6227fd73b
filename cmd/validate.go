package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/matrixise/liquidation-tracker/internal/blockchain"
	"github.com/matrixise/liquidation-tracker/internal/config"
	"github.com/matrixise/liquidation-tracker/internal/logger"
)

var checkOnChain bool

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long: `Validate the configuration file syntax and values without running the
application. With --on-chain, the configured tokens are also cross-checked
against the symbol and decimals their contracts report.`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&checkOnChain, "on-chain", false, "cross-check tokens against their contracts")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	// Setup logger
	logger.Setup(logLevel)

	// Load config
	cfg, databaseURL, err := config.LoadWithDefaults(cfgFile)
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	slog.Info("✓ Configuration valid",
		"pool", cfg.PoolAddress,
		"oracle", cfg.OracleAddress,
		"start_block", cfg.StartBlock,
		"tokens", len(cfg.Tokens),
		"interval", cfg.Interval,
		"log_level", cfg.LogLevel,
		"database_url_set", databaseURL != "",
	)

	if !checkOnChain {
		return nil
	}

	client, err := blockchain.NewClient(cfg.RPCUrls, common.HexToAddress(cfg.OracleAddress))
	if err != nil {
		slog.Error("Failed to connect to RPC", "error", err)
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	mismatches := 0
	for _, tok := range cfg.Tokens {
		meta, err := client.FetchTokenMetadata(ctx, common.HexToAddress(tok.Address))
		if err != nil {
			slog.Error("Token metadata lookup failed", "symbol", tok.Symbol, "address", tok.Address, "error", err)
			mismatches++
			continue
		}

		if !strings.EqualFold(meta.Symbol, tok.Symbol) || meta.Decimals != tok.Decimals {
			slog.Error("Token configuration mismatch",
				"address", tok.Address,
				"configured_symbol", tok.Symbol, "chain_symbol", meta.Symbol,
				"configured_decimals", tok.Decimals, "chain_decimals", meta.Decimals,
			)
			mismatches++
			continue
		}

		slog.Info("✓ Token verified", "symbol", tok.Symbol, "decimals", tok.Decimals)
	}

	if mismatches > 0 {
		return fmt.Errorf("%d token(s) failed on-chain verification", mismatches)
	}

	slog.Info("✓ All tokens verified on-chain")
	return nil
}
