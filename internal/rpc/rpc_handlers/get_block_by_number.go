package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetBlockByNumberMethod handles the eth_getBlockByNumber RPC method. The
// second parameter selects full transaction objects over hashes.
type GetBlockByNumberMethod struct{}

func (m *GetBlockByNumberMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		tag  rpc.BlockNumber
		full bool
	)
	if err := rpc_types.ParseParams(params, 1, &tag, &full); err != nil {
		return nil, err
	}
	svc := ctx.Services.Chain
	number, rpcErr := resolveBlock(svc, tag)
	if rpcErr != nil {
		// Blocks past the head are reported as null, like a real node.
		return nil, nil
	}
	block, txs, err := svc.BlockByNumber(ctx.Context, number)
	if errors.Is(err, chain.ErrBlockNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	if !full {
		txs = nil
	}
	return block.RPCMarshal(txs), nil
}

func (m *GetBlockByNumberMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
