package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// SnapshotMethod handles the evm_snapshot RPC method. It returns an id that
// evm_revert accepts once.
type SnapshotMethod struct{}

func (m *SnapshotMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return hexutil.Uint64(ctx.Services.Chain.Snapshot()), nil
}

func (m *SnapshotMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
