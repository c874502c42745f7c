package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// RevertMethod handles the evm_revert RPC method. It returns false for an
// unknown or already used snapshot id.
type RevertMethod struct{}

func (m *RevertMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var id hexutil.Uint64
	if err := rpc_types.ParseParams(params, 1, &id); err != nil {
		return nil, err
	}
	ok, err := ctx.Services.Chain.Revert(ctx.Context, uint64(id))
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return ok, nil
}

func (m *RevertMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
