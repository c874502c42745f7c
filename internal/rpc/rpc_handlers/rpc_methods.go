package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// RpcMethodsMethod handles the rpc_methods RPC method
type RpcMethodsMethod struct {
	Registry *rpc_types.MethodRegistry
}

func (m *RpcMethodsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return m.Registry.List(), nil
}

func (m *RpcMethodsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
