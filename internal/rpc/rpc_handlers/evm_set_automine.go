package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// SetAutomineMethod handles the evm_setAutomine RPC method. Turning
// automine on seals anything already queued.
type SetAutomineMethod struct{}

func (m *SetAutomineMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var enabled bool
	if err := rpc_types.ParseParams(params, 1, &enabled); err != nil {
		return nil, err
	}
	if err := ctx.Services.Chain.SetAutoMine(ctx.Context, enabled); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return true, nil
}

func (m *SetAutomineMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
