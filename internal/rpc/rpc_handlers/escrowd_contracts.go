package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// ContractsMethod handles the escrowd_contracts RPC method: every deployed
// contract address with its kind.
type ContractsMethod struct{}

func (m *ContractsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return ctx.Services.Chain.Contracts(), nil
}

func (m *ContractsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
