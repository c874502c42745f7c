package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// ChainIdMethod handles the eth_chainId RPC method
type ChainIdMethod struct{}

func (m *ChainIdMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return hexutil.Uint64(ctx.Services.Chain.ChainID()), nil
}

func (m *ChainIdMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
