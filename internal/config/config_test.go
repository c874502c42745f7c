package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/deploy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	config, err := LoadConfig(ConfigPaths{})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8545", config.Server.Address())
	assert.Equal(t, "http://127.0.0.1:8545", config.Server.URL())
	assert.Equal(t, 30*time.Second, config.Server.Timeout)
	assert.True(t, config.Server.WS)
	assert.False(t, config.GRPC.Enabled)

	assert.Equal(t, uint64(31337), config.Chain.ChainID)
	assert.True(t, config.Chain.AutoMine)
	assert.Equal(t, "10000000000000000000000", config.Chain.GenesisBalance().String())
	assert.Empty(t, config.Chain.Signers)

	assert.False(t, config.IsPersistent())
	assert.False(t, config.HasIndex())

	assert.Equal(t, deploy.DefaultBaseURL, config.Deploy.MetadataBaseURL)
	assert.Equal(t, 3, config.Deploy.MintCount)
	assert.Equal(t, deploy.DefaultUnlockTime, config.Deploy.UnlockTime)
	assert.Equal(t, "1000000000", config.Deploy.LockedAmount)

	assert.Equal(t, "info", config.Log.Level)
	assert.Empty(t, config.GetConfigPath())
}

func TestLoadConfig(t *testing.T) {
	mainConfigPath := writeFile(t, "escrowd.toml", `
[server]
bind = "0.0.0.0"
port = 9545
timeout = "5s"
admin_all = true

[grpc]
enabled = true
address = "127.0.0.1:6000"

[chain]
chain_id = 1337
automine = false
block_time = "2s"
signers = ["alice", "bob", "carol", "dave"]

[storage]
backend = "pebble"
path = "/var/lib/escrowd"
compression = "zstd"

[index]
driver = "sqlite"
dsn = "/var/lib/escrowd/index.db"

[deploy]
mint_count = 5
locked_amount = "42"

[log]
level = "debug"
format = "json"
`)

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "0.0.0.0:9545", config.Server.Address())
	assert.Equal(t, 5*time.Second, config.Server.Timeout)

	rpcCfg := config.Server.RPCConfig()
	assert.True(t, rpcCfg.AdminAll)
	assert.Equal(t, 5*time.Second, rpcCfg.Timeout)

	grpcCfg := config.GRPC.ServerConfig(config.Server.AdminAll)
	assert.Equal(t, "127.0.0.1:6000", grpcCfg.Address)
	assert.True(t, grpcCfg.AdminAll)
	assert.NoError(t, grpcCfg.Validate())

	assert.Equal(t, uint64(1337), config.Chain.ChainID)
	assert.False(t, config.Chain.AutoMine)
	assert.Equal(t, 2*time.Second, config.Chain.BlockTime)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, config.Chain.Signers)

	assert.True(t, config.IsPersistent())
	assert.Equal(t, "/var/lib/escrowd", config.Storage.Path)
	assert.Equal(t, "zstd", config.Storage.Compression)
	assert.True(t, config.HasIndex())
	idx := config.Index.RelationalConfig()
	assert.Equal(t, "sqlite", idx.Driver)
	assert.Equal(t, 1, idx.MaxOpenConns)

	assert.Equal(t, 5, config.Deploy.MintCount)
	assert.Equal(t, "42", config.Deploy.LockedAmount)
	assert.Equal(t, mainConfigPath, config.GetConfigPath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Main: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ESCROWD_SERVER_PORT", "7545")
	t.Setenv("ESCROWD_CHAIN_AUTOMINE", "false")

	envPath := writeFile(t, ".env", "ESCROWD_LOG_LEVEL=warn\nESCROWD_SERVER_PORT=1111\n")
	t.Cleanup(func() { os.Unsetenv("ESCROWD_LOG_LEVEL") })

	config, err := LoadConfig(ConfigPaths{Env: envPath})
	require.NoError(t, err)

	// variables already in the environment win over the dotenv file
	assert.Equal(t, 7545, config.Server.Port)
	assert.False(t, config.Chain.AutoMine)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestMissingEnvFileIgnored(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Env: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "Server.Port"},
		{"bad bind", func(c *Config) { c.Server.Bind = "localhost:80" }, "Server.Bind"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "Server.Timeout"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "nudb" }, "Storage.Backend"},
		{"unknown compression", func(c *Config) { c.Storage.Compression = "snappy" }, "Storage.Compression"},
		{"persistent without path", func(c *Config) {
			c.Storage.Backend = "leveldb"
			c.Storage.Path = ""
		}, "path is required"},
		{"index without dsn", func(c *Config) { c.Index.Driver = "postgres" }, "Index.DSN"},
		{"unknown index driver", func(c *Config) {
			c.Index.Driver = "mysql"
			c.Index.DSN = "x"
		}, "Index.Driver"},
		{"file index on memory chain", func(c *Config) {
			c.Index.Driver = "sqlite"
			c.Index.DSN = "/tmp/index.db"
		}, "requires a persistent storage backend"},
		{"postgres index on memory chain", func(c *Config) {
			c.Index.Driver = "postgres"
			c.Index.DSN = "postgres://localhost/escrowd"
		}, "requires a persistent storage backend"},
		{"memory index on memory chain", func(c *Config) {
			c.Index.Driver = "sqlite"
			c.Index.DSN = "file::memory:?cache=shared"
		}, ""},
		{"file index on pebble chain", func(c *Config) {
			c.Storage.Backend = "pebble"
			c.Storage.Path = "/tmp/chain"
			c.Index.Driver = "sqlite"
			c.Index.DSN = "/tmp/index.db"
		}, ""},
		{"too few signers", func(c *Config) { c.Chain.Signers = []string{"a", "b"} }, "at least 4 signers"},
		{"duplicate signer", func(c *Config) { c.Chain.Signers = []string{"a", "b", "c", "a"} }, "duplicate signer"},
		{"block time with automine", func(c *Config) { c.Chain.BlockTime = time.Second }, "block_time"},
		{"zero mint count", func(c *Config) { c.Deploy.MintCount = 0 }, "Deploy.MintCount"},
		{"negative locked amount", func(c *Config) { c.Deploy.LockedAmount = "-5" }, "locked_amount"},
		{"bad base url", func(c *Config) { c.Deploy.MetadataBaseURL = "not a url" }, "Deploy.MetadataBaseURL"},
		{"grpc on rpc address", func(c *Config) {
			c.GRPC.Enabled = true
			c.GRPC.Address = c.Server.Address()
		}, "must differ"},
		{"grpc without address", func(c *Config) {
			c.GRPC.Enabled = true
			c.GRPC.Address = ""
		}, "required when grpc is enabled"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "Log.Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := ValidateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
