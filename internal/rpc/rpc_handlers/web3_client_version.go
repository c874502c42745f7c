package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// ClientVersionMethod handles the web3_clientVersion RPC method
type ClientVersionMethod struct{}

func (m *ClientVersionMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	version := ctx.Services.Version
	if version == "" {
		version = "dev"
	}
	return "escrowd/" + version, nil
}

func (m *ClientVersionMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
