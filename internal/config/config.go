package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/matrixise/liquidation-tracker/internal/scheduler"
)

// Config represents the application configuration
type Config struct {
	RPCUrl  string   `mapstructure:"rpc_url" validate:"omitempty,url"`
	RPCUrls []string `mapstructure:"rpc_urls" validate:"omitempty,min=1,dive,url"`

	PoolAddress   string `mapstructure:"pool_address" validate:"required,eth_addr"`
	OracleAddress string `mapstructure:"oracle_address" validate:"required,eth_addr"`
	StartBlock    uint64 `mapstructure:"start_block" validate:"required,min=1"`
	ChunkSize     uint64 `mapstructure:"chunk_size" validate:"omitempty,min=1,max=10000"`

	Tokens []TokenConfig `mapstructure:"tokens" validate:"required,min=1,dive"`

	Interval       string `mapstructure:"interval" validate:"omitempty,schedule"`
	Timezone       string `mapstructure:"timezone" validate:"omitempty,timezone"`
	RunImmediately *bool  `mapstructure:"run_immediately"`
	LogLevel       string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogDir         string `mapstructure:"log_dir" validate:"omitempty,min=1"`
	HTTPPort       int    `mapstructure:"http_port" validate:"omitempty,min=1024,max=65535"`
}

// TokenConfig represents a single token in the registry
type TokenConfig struct {
	Symbol        string  `mapstructure:"symbol" validate:"required,min=1,max=32"`
	Address       string  `mapstructure:"address" validate:"required,eth_addr"`
	Decimals      uint8   `mapstructure:"decimals" validate:"max=36"`
	FallbackPrice float64 `mapstructure:"fallback_price" validate:"omitempty,gt=0"`
}

// cronPattern matches cron expressions (5 or 6 fields)
var cronPattern = regexp.MustCompile(`^(\S+\s+){4,5}\S+$`)

// Normalize folds the single rpc_url form into the rpc_urls list.
func (c *Config) Normalize() error {
	if len(c.RPCUrls) == 0 && c.RPCUrl != "" {
		c.RPCUrls = []string{c.RPCUrl}
	}
	c.RPCUrl = ""
	if len(c.RPCUrls) == 0 {
		return fmt.Errorf("at least one RPC URL is required (rpc_url or rpc_urls)")
	}
	return nil
}

// GetTimezone returns the configured location, defaulting to UTC.
func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShouldRunImmediately reports whether a scan runs at startup before the
// scheduler takes over. Defaults to true when unset.
func (c *Config) ShouldRunImmediately() bool {
	if c.RunImmediately == nil {
		return true
	}
	return *c.RunImmediately
}

// IsCronExpression reports whether the interval is a cron expression rather
// than a duration.
func (c *Config) IsCronExpression() bool {
	return cronPattern.MatchString(c.Interval)
}

// ethAddressValidator validates Ethereum addresses
func ethAddressValidator(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// scheduleValidator validates schedule intervals (durations or cron)
func scheduleValidator(fl validator.FieldLevel) bool {
	return scheduler.ValidateScheduleInterval(fl.Field().String()) == nil
}

// NewValidator creates a validator with custom validation rules
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("eth_addr", ethAddressValidator)
	validate.RegisterValidation("schedule", scheduleValidator)
	return validate
}
