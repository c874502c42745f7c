package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// BlockNumberMethod handles the eth_blockNumber RPC method
type BlockNumberMethod struct{}

func (m *BlockNumberMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return hexutil.Uint64(ctx.Services.Chain.BlockNumber()), nil
}

func (m *BlockNumberMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
