package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// MineMethod handles the evm_mine RPC method: it seals the pending block,
// empty or not.
type MineMethod struct{}

func (m *MineMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	if _, err := ctx.Services.Chain.Mine(ctx.Context); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return "0x0", nil
}

func (m *MineMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
