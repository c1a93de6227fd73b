package scheduler

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScheduleInterval(t *testing.T) {
	tests := []struct {
		name      string
		interval  string
		wantError bool
	}{
		// Empty interval
		{"empty interval", "", false},

		// Valid minute durations
		{"valid 1m", "1m", false},
		{"valid 5m", "5m", false},
		{"valid 10m", "10m", false},
		{"valid 15m", "15m", false},
		{"valid 30m", "30m", false},

		// Valid hour durations
		{"valid 1h", "1h", false},
		{"valid 2h", "2h", false},
		{"valid 6h", "6h", false},
		{"valid 12h", "12h", false},
		{"valid 24h", "24h", false},

		// Valid second durations
		{"valid 15s", "15s", false},
		{"valid 30s", "30s", false},

		// Invalid durations
		{"invalid 7m", "7m", true},
		{"invalid 45m", "45m", true},
		{"invalid 5h", "5h", true},
		{"invalid 11h", "11h", true},
		{"invalid 7s", "7s", true},

		// Valid cron expressions
		{"cron every 5 min", "*/5 * * * *", false},
		{"cron every 2 hours", "0 */2 * * *", false},
		{"cron complex", "0 9,17 * * 1-5", false},
		{"cron 6 fields", "*/30 * * * * *", false},

		// Invalid cron expressions
		{"cron too few fields", "*/5 * * *", true},
		{"cron too many fields", "*/5 * * * * * *", true},

		// Invalid format
		{"non-duration non-cron", "invalid", true},
		{"mixed units", "1h30m", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScheduleInterval(tt.interval)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationToCron(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		want     string
		wantErr  bool
	}{
		// Minutes
		{"5 minutes", "5m", "*/5 * * * *", false},
		{"10 minutes", "10m", "*/10 * * * *", false},
		{"30 minutes", "30m", "*/30 * * * *", false},

		// Hours
		{"1 hour", "1h", "0 */1 * * *", false},
		{"6 hours", "6h", "0 */6 * * *", false},
		{"24 hours", "24h", "0 */24 * * *", false},

		// Seconds
		{"30 seconds", "30s", "*/30 * * * * *", false},
		{"15 seconds", "15s", "*/15 * * * * *", false},

		// Invalid
		{"7 minutes", "7m", "", true},
		{"5 hours", "5h", "", true},
		{"13 seconds", "13s", "", true},
		{"non-duration", "invalid", "", true},
		{"mixed units", "1h30m", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := durationToCron(tt.duration)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCronExpression(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"5-field cron", "*/5 * * * *", true},
		{"6-field cron", "*/30 * * * * *", true},
		{"duration 5m", "5m", false},
		{"duration 1h", "1h", false},
		{"invalid", "not a cron", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCronExpression(tt.input))
		})
	}
}

func TestGocronLoggerAdapter(t *testing.T) {
	adapter := newGocronLoggerAdapter(slog.Default())

	t.Run("log methods work", func(t *testing.T) {
		adapter.Debug("test debug", "key", "value")
		adapter.Info("test info", "key", "value")
		adapter.Warn("test warn", "key", "value")
		adapter.Error("test error", "key", "value")
	})
}
