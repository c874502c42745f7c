package config

import "github.com/LeJamon/goEscrow/internal/storage/relationaldb"

// StorageConfig selects the key-value store holding the chain
type StorageConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend" validate:"oneof=memory pebble leveldb"`
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression" validate:"oneof=none lz4 zstd"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size" validate:"gte=0"`
}

// IndexConfig configures the optional SQL transaction and log index
type IndexConfig struct {
	Driver string `toml:"driver" mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres"`
	DSN    string `toml:"dsn" mapstructure:"dsn" validate:"required_with=Driver"`
}

// RelationalConfig converts the section into the index configuration.
func (i *IndexConfig) RelationalConfig() *relationaldb.Config {
	return relationaldb.NewConfig(i.Driver, i.DSN)
}
