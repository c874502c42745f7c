package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// UnsubscribeMethod handles the eth_unsubscribe RPC method (WebSocket only)
type UnsubscribeMethod struct{}

func (m *UnsubscribeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	if ctx.Notifier == nil {
		return nil, rpc_types.RpcErrorUnsupported("notifications not supported")
	}
	var id string
	if err := rpc_types.ParseParams(params, 1, &id); err != nil {
		return nil, err
	}
	return ctx.Notifier.Unsubscribe(id), nil
}

func (m *UnsubscribeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
