// Package bind holds the plumbing shared by the typed contract bindings: the
// Backend a binding talks to, transaction options, and a generic bound
// contract that packs calls and unpacks results through the contract ABI.
package bind

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
)

// Backend is the chain surface bindings need. The in-process chain and the
// RPC client both implement it.
type Backend interface {
	// SendTransaction submits tx. The backend assigns the nonce.
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)

	// CallContract executes a read-only call. Reverts come back as
	// *vm.RevertError.
	CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error)

	// TransactionReceipt returns ethereum.NotFound until the transaction
	// is mined.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	// CodeAt returns the contract kind deployed at addr.
	CodeAt(ctx context.Context, addr common.Address) (string, error)

	// BalanceAt returns the head balance of addr.
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Chain is the in-process chain surface ChainBackend wraps. *chain.Chain
// implements it.
type Chain interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Code(addr common.Address) string
	Balance(addr common.Address) *big.Int
}

// ChainBackend adapts the in-process chain to Backend.
type ChainBackend struct {
	Chain Chain
}

// NewChainBackend wraps c.
func NewChainBackend(c Chain) *ChainBackend {
	return &ChainBackend{Chain: c}
}

func (b *ChainBackend) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	return b.Chain.SendTransaction(ctx, tx)
}

func (b *ChainBackend) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	return b.Chain.Call(ctx, msg)
}

func (b *ChainBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := b.Chain.Receipt(ctx, hash)
	if errors.Is(err, chain.ErrReceiptNotFound) {
		return nil, ethereum.NotFound
	}
	return receipt, err
}

func (b *ChainBackend) CodeAt(_ context.Context, addr common.Address) (string, error) {
	return b.Chain.Code(addr), nil
}

func (b *ChainBackend) BalanceAt(_ context.Context, addr common.Address) (*big.Int, error) {
	return b.Chain.Balance(addr), nil
}

// WaitMined polls the backend until the transaction is mined or ctx is done.
func WaitMined(ctx context.Context, b Backend, hash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(50 * time.Millisecond)
	defer queryTicker.Stop()

	logger := log.New("hash", hash)
	for {
		receipt, err := b.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, ethereum.NotFound) {
			logger.Trace("Transaction not yet mined")
		} else {
			logger.Trace("Receipt retrieval failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}
