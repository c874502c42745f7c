package rpc_types

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
)

// ServiceContainer holds references to all services needed by RPC handlers
type ServiceContainer struct {
	Chain ChainService

	// Version is reported by web3_clientVersion.
	Version string
}

// ChainService is the part of *chain.Chain the handlers use.
type ChainService interface {
	ChainID() uint64
	Signers() *account.Set

	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)

	Head() *types.Block
	BlockNumber() uint64
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, []*types.Transaction, error)
	Transaction(ctx context.Context, hash common.Hash) (*types.Transaction, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]*gethtypes.Log, error)

	Balance(addr common.Address) *big.Int
	Nonce(addr common.Address) uint64
	PendingNonce(addr common.Address) uint64
	Code(addr common.Address) string
	Contracts() map[common.Address]string

	Mine(ctx context.Context) (*types.Block, error)
	SetAutoMine(ctx context.Context, enabled bool) error
	AutoMine() bool
	IncreaseTime(ctx context.Context, d time.Duration) (time.Duration, error)
	SetBalance(ctx context.Context, addr common.Address, amount *big.Int) error
	Snapshot() uint64
	Revert(ctx context.Context, id uint64) (bool, error)

	SubscribeNewHeads(ch chan<- *types.Block) event.Subscription
	SubscribeLogs(ch chan<- []*gethtypes.Log) event.Subscription
}

var _ ChainService = (*chain.Chain)(nil)
