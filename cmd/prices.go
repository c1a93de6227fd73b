package cmd

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/matrixise/liquidation-tracker/internal/blockchain"
	"github.com/matrixise/liquidation-tracker/internal/config"
	"github.com/matrixise/liquidation-tracker/internal/logger"
	"github.com/matrixise/liquidation-tracker/internal/oracle"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Fetch current oracle prices for all configured tokens",
	Long: `Resolve the current USD price of every configured token through the
price oracle (with stablecoin fallbacks) and print the result. A snapshot is
also appended to the token price log.`,
	RunE: runPrices,
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	logger.Setup(logLevel)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		return err
	}
	if cfg.LogLevel != "" {
		logger.Setup(cfg.LogLevel)
	}

	client, err := blockchain.NewClient(cfg.RPCUrls, common.HexToAddress(cfg.OracleAddress))
	if err != nil {
		slog.Error("Failed to connect to RPC", "error", err)
		return err
	}
	defer client.Close()

	tokens := buildRegistry(cfg)
	resolver := oracle.NewResolver(client, tokens.Tokens())

	eventLog, err := logger.OpenEventLog(cfg.LogDir)
	if err != nil {
		slog.Error("Failed to open event log", "error", err)
		return err
	}
	defer eventLog.Close()

	ctx := cmd.Context()
	quotes := resolver.Resolve(ctx, tokens.Tokens())

	snapshot := make(map[string]string, len(quotes))
	for _, tok := range tokens.Tokens() {
		quote, ok := quotes[tok.Address]
		if !ok {
			slog.Warn("Price unavailable", "symbol", tok.Symbol, "address", tok.Address.Hex())
			continue
		}
		snapshot[tok.Symbol] = quote.PriceUsd.String()
		slog.Info("Price resolved",
			"symbol", tok.Symbol,
			"price_usd", quote.PriceUsd.String(),
			"source", string(quote.Source),
		)
	}

	if len(snapshot) > 0 {
		eventLog.LogTokenPrices(snapshot)
	}

	return nil
}
