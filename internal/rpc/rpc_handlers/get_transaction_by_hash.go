package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetTransactionByHashMethod handles the eth_getTransactionByHash RPC method
type GetTransactionByHashMethod struct{}

func (m *GetTransactionByHashMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var hash common.Hash
	if err := rpc_types.ParseParams(params, 1, &hash); err != nil {
		return nil, err
	}
	tx, err := ctx.Services.Chain.Transaction(ctx.Context, hash)
	if errors.Is(err, chain.ErrTxNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return tx, nil
}

func (m *GetTransactionByHashMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
