package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetTransactionReceiptMethod handles the eth_getTransactionReceipt RPC
// method. Unknown and still-pending transactions return null.
type GetTransactionReceiptMethod struct{}

func (m *GetTransactionReceiptMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var hash common.Hash
	if err := rpc_types.ParseParams(params, 1, &hash); err != nil {
		return nil, err
	}
	receipt, err := ctx.Services.Chain.Receipt(ctx.Context, hash)
	if errors.Is(err, chain.ErrReceiptNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return receipt, nil
}

func (m *GetTransactionReceiptMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
