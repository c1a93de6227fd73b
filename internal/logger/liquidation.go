package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matrixise/liquidation-tracker/internal/storage"
)

// File names inside the log directory.
const (
	eventsLogFile        = "events.log"
	liquidationsLogFile  = "liquidations.log"
	liquidationsJSONFile = "liquidations.json"
	errorsLogFile        = "errors.log"
	tokenPricesJSONFile  = "token_prices.json"
	liquidationEventType = "AaveLiquidationCall"
)

// EventLog fans liquidation facts out to append-only sinks: a general event
// stream, a liquidation-specific stream, a JSONL stream for machine
// consumption, and an error stream, with console lines through slog. Every
// write happens under one mutex so concurrent pipeline invocations cannot
// interleave partial lines. Sink failures are reported to the console only
// and never propagate to the caller.
type EventLog struct {
	mu sync.Mutex

	events           *os.File
	liquidations     *os.File
	liquidationsJSON *os.File
	errors           *os.File
	tokenPrices      *os.File
}

// liquidationEntry is the machine-parseable JSON form of a liquidation.
type liquidationEntry struct {
	EventType                  string `json:"eventType"`
	Timestamp                  string `json:"timestamp"`
	BlockNumber                string `json:"blockNumber"`
	TransactionHash            string `json:"transactionHash"`
	LogIndex                   uint32 `json:"logIndex"`
	Borrower                   string `json:"borrower"`
	Liquidator                 string `json:"liquidator"`
	CollateralAsset            string `json:"collateralAsset"`
	CollateralSymbol           string `json:"collateralSymbol"`
	DebtAsset                  string `json:"debtAsset"`
	DebtSymbol                 string `json:"debtSymbol"`
	LiquidatedCollateralAmount string `json:"liquidatedCollateralAmount"`
	FormattedCollateralAmount  string `json:"formattedCollateralAmount"`
	UsdValueSeized             string `json:"usdValueSeized"`
	DebtToCover                string `json:"debtToCover"`
	FormattedDebtAmount        string `json:"formattedDebtAmount"`
	UsdValueDebt               string `json:"usdValueDebt"`
	ReceiveAToken              bool   `json:"receiveAToken"`
}

// priceEntry is one line of the token price JSON stream.
type priceEntry struct {
	Timestamp string            `json:"timestamp"`
	Prices    map[string]string `json:"prices"`
}

// OpenEventLog opens (creating if needed) the append-only sinks under dir.
func OpenEventLog(dir string) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	l := &EventLog{}
	for _, sink := range []struct {
		name string
		file **os.File
	}{
		{eventsLogFile, &l.events},
		{liquidationsLogFile, &l.liquidations},
		{liquidationsJSONFile, &l.liquidationsJSON},
		{errorsLogFile, &l.errors},
		{tokenPricesJSONFile, &l.tokenPrices},
	} {
		f, err := os.OpenFile(filepath.Join(dir, sink.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("open %s: %w", sink.name, err)
		}
		*sink.file = f
	}
	return l, nil
}

// Close closes all sinks.
func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range []*os.File{l.events, l.liquidations, l.liquidationsJSON, l.errors, l.tokenPrices} {
		if f != nil {
			f.Close()
		}
	}
}

// LogLiquidation writes one human-readable line to the general event stream
// and the liquidation stream, one JSON line to the JSONL stream, and a
// console summary.
func (l *EventLog) LogLiquidation(rec storage.LiquidationRecord) {
	now := time.Now().UTC().Format(time.RFC3339)

	line := fmt.Sprintf("%s - [%s] Borrower: %s Liquidator: %s "+
		"Collateral: %s %s (%s USD) Debt: %s %s (%s USD) "+
		"ReceiveAToken: %t Block: %d Tx: %s LogIndex: %d\n",
		now, liquidationEventType, rec.BorrowerAddress, rec.LiquidatorAddress,
		rec.CollateralAmount, rec.CollateralSymbol, rec.UsdValueSeized,
		rec.DebtAmount, rec.DebtSymbol, rec.UsdValueDebt,
		rec.ReceiveAToken, rec.BlockNumber, rec.TransactionHash, rec.LogIndex)

	entry := liquidationEntry{
		EventType:                  liquidationEventType,
		Timestamp:                  now,
		BlockNumber:                fmt.Sprintf("%d", rec.BlockNumber),
		TransactionHash:            rec.TransactionHash,
		LogIndex:                   rec.LogIndex,
		Borrower:                   rec.BorrowerAddress,
		Liquidator:                 rec.LiquidatorAddress,
		CollateralAsset:            rec.CollateralAsset,
		CollateralSymbol:           rec.CollateralSymbol,
		DebtAsset:                  rec.DebtAsset,
		DebtSymbol:                 rec.DebtSymbol,
		LiquidatedCollateralAmount: rec.SeizedAmountRaw.String(),
		FormattedCollateralAmount:  rec.CollateralAmount.String(),
		UsdValueSeized:             rec.UsdValueSeized.String(),
		DebtToCover:                rec.DebtAmountRaw.String(),
		FormattedDebtAmount:        rec.DebtAmount.String(),
		UsdValueDebt:               rec.UsdValueDebt.String(),
		ReceiveAToken:              rec.ReceiveAToken,
	}

	jsonLine, err := json.Marshal(entry)
	if err != nil {
		slog.Error("Failed to marshal liquidation entry", "error", err)
		jsonLine = nil
	}

	l.mu.Lock()
	l.append(l.events, line)
	l.append(l.liquidations, line)
	if jsonLine != nil {
		l.append(l.liquidationsJSON, string(jsonLine)+"\n")
	}
	l.mu.Unlock()

	slog.Info("Liquidation recorded",
		"borrower", rec.BorrowerAddress,
		"liquidator", rec.LiquidatorAddress,
		"collateral", rec.CollateralSymbol,
		"seized", rec.CollateralAmount.String(),
		"usd_seized", rec.UsdValueSeized.String(),
		"debt", rec.DebtSymbol,
		"usd_debt", rec.UsdValueDebt.String(),
		"block", rec.BlockNumber,
		"tx", rec.TransactionHash,
	)
}

// LogError appends one line to the error stream and mirrors it to console.
// It never fails; a broken sink degrades to console-only.
func (l *EventLog) LogError(context string, err error) {
	now := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s - [ERROR] %s: %v\n", now, context, err)

	l.mu.Lock()
	l.append(l.errors, line)
	l.mu.Unlock()

	slog.Error(context, "error", err)
}

// LogTokenPrices appends a snapshot of resolved token prices (symbol to USD
// string) to the price JSON stream.
func (l *EventLog) LogTokenPrices(prices map[string]string) {
	entry := priceEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Prices:    prices,
	}
	jsonLine, err := json.Marshal(entry)
	if err != nil {
		slog.Error("Failed to marshal token prices", "error", err)
		return
	}

	l.mu.Lock()
	l.append(l.tokenPrices, string(jsonLine)+"\n")
	l.mu.Unlock()
}

// append writes one complete line to a sink; must hold l.mu.
func (l *EventLog) append(f *os.File, line string) {
	if f == nil {
		return
	}
	if _, err := f.WriteString(line); err != nil {
		slog.Error("Failed to write log sink", "file", f.Name(), "error", err)
	}
}
