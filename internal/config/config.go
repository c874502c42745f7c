// Package config loads the escrowd node configuration.
package config

import (
	"math/big"
	"strings"
	"time"

	"github.com/LeJamon/goEscrow/internal/core/types"
)

// Config represents the complete escrowd configuration
type Config struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	GRPC    GRPCConfig    `toml:"grpc" mapstructure:"grpc"`
	Chain   ChainConfig   `toml:"chain" mapstructure:"chain"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	Index   IndexConfig   `toml:"index" mapstructure:"index"`
	Deploy  DeployConfig  `toml:"deploy" mapstructure:"deploy"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	// Internal fields
	configPath string
}

// ChainConfig describes the simulated chain
type ChainConfig struct {
	ChainID             uint64 `toml:"chain_id" mapstructure:"chain_id" validate:"required"`
	AutoMine            bool   `toml:"automine" mapstructure:"automine"`
	GenesisBalanceEther uint64 `toml:"genesis_balance_ether" mapstructure:"genesis_balance_ether"`

	// Signers names the devnet accounts; empty means the default ten.
	Signers []string `toml:"signers" mapstructure:"signers" validate:"omitempty,dive,required"`

	// BlockTime, when set and automine is off, mines a block on this
	// interval.
	BlockTime time.Duration `toml:"block_time" mapstructure:"block_time" validate:"gte=0"`
}

// DeployConfig holds the deployment module defaults
type DeployConfig struct {
	MetadataBaseURL string `toml:"metadata_base_url" mapstructure:"metadata_base_url" validate:"required,url"`
	MintCount       int    `toml:"mint_count" mapstructure:"mint_count" validate:"gte=1"`
	UnlockTime      uint64 `toml:"unlock_time" mapstructure:"unlock_time"`
	LockedAmount    string `toml:"locked_amount" mapstructure:"locked_amount" validate:"numeric"`
	WithEscrow      bool   `toml:"with_escrow" mapstructure:"with_escrow"`
	VerifyMetadata  bool   `toml:"verify_metadata" mapstructure:"verify_metadata"`
	Output          string `toml:"output" mapstructure:"output"`
}

// LogConfig selects the log handler
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error crit"`
	Format string `toml:"format" mapstructure:"format" validate:"oneof=terminal json logfmt"`
}

// GenesisBalance returns the per-signer genesis balance in wei.
func (c *ChainConfig) GenesisBalance() *big.Int {
	return types.Ether(int64(c.GenesisBalanceEther))
}

// GetConfigPath returns the path of the file the config was read from, if
// any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// IsPersistent reports whether the chain is kept on disk.
func (c *Config) IsPersistent() bool {
	return !strings.EqualFold(c.Storage.Backend, "memory")
}

// HasIndex reports whether a SQL index is configured.
func (c *Config) HasIndex() bool {
	return c.Index.Driver != ""
}
