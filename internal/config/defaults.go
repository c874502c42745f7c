package config

import (
	"github.com/spf13/viper"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/deploy"
)

// setDefaults sets the values a node runs with when nothing is configured
func setDefaults(v *viper.Viper) {
	// JSON-RPC
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 8545)
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.max_batch", 100)
	v.SetDefault("server.ws", true)
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.admin_all", false)

	// gRPC gateway
	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.address", "127.0.0.1:50051")

	// Chain
	v.SetDefault("chain.chain_id", chain.DefaultChainID)
	v.SetDefault("chain.automine", true)
	v.SetDefault("chain.genesis_balance_ether", 10000)
	v.SetDefault("chain.signers", []string{})
	v.SetDefault("chain.block_time", "0s")

	// Storage
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.compression", "none")
	v.SetDefault("storage.cache_size", 256)

	// Index is disabled unless a driver is set
	v.SetDefault("index.driver", "")
	v.SetDefault("index.dsn", "")

	// Deployment module
	v.SetDefault("deploy.metadata_base_url", deploy.DefaultBaseURL)
	v.SetDefault("deploy.mint_count", deploy.DefaultMintCount)
	v.SetDefault("deploy.unlock_time", deploy.DefaultUnlockTime)
	v.SetDefault("deploy.locked_amount", deploy.DefaultLockedAmount.String())
	v.SetDefault("deploy.with_escrow", false)
	v.SetDefault("deploy.verify_metadata", false)
	v.SetDefault("deploy.output", "")

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "terminal")
}
