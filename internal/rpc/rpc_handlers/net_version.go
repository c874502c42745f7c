package rpc_handlers

import (
	"encoding/json"
	"strconv"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// NetVersionMethod handles the net_version RPC method. The network id is
// the chain id in decimal.
type NetVersionMethod struct{}

func (m *NetVersionMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return strconv.FormatUint(ctx.Services.Chain.ChainID(), 10), nil
}

func (m *NetVersionMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
