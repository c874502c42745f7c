package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
	"github.com/LeJamon/goEscrow/internal/storage/relationaldb"
)

// DefaultChainID matches the chain id local Ethereum devnets use.
const DefaultChainID = 31337

// Config holds configuration for the Chain
type Config struct {
	// ChainID is reported by eth_chainId and visible to contracts.
	ChainID uint64

	// AutoMine seals every transaction into its own block. When false,
	// transactions queue until Mine is called.
	AutoMine bool

	// GenesisTime is the timestamp of block 0. Zero means Clock.Now().
	GenesisTime time.Time

	// Signers are the devnet accounts that eth_sendTransaction accepts.
	Signers *account.Set

	// SignerBalance is the genesis balance of every signer.
	SignerBalance *big.Int

	// Alloc adds genesis balances for arbitrary addresses.
	Alloc map[common.Address]*big.Int

	// Store keeps blocks, receipts and the head state (nil for in-memory only)
	Store keyValueDb.DB

	// Compression names the compressor applied to stored records.
	Compression string

	// Index is the SQL transaction and log index (optional)
	Index relationaldb.Index

	// CacheSize is the number of decoded blocks kept in memory.
	CacheSize int

	Clock  Clock
	Logger log.Logger
}

// DefaultConfig returns the default chain configuration
func DefaultConfig() Config {
	return Config{
		ChainID:       DefaultChainID,
		AutoMine:      true,
		Signers:       account.Defaults(),
		SignerBalance: types.Ether(10000),
		CacheSize:     256,
		Clock:         SystemClock{},
	}
}
