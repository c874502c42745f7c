package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetTransactionCountMethod handles the eth_getTransactionCount RPC method.
// The pending tag includes queued transactions.
type GetTransactionCountMethod struct{}

func (m *GetTransactionCountMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		addr common.Address
		tag  *rpc.BlockNumberOrHash
	)
	if err := rpc_types.ParseParams(params, 1, &addr, &tag); err != nil {
		return nil, err
	}
	svc := ctx.Services.Chain
	if tag != nil {
		if number, ok := tag.Number(); ok && number == rpc.PendingBlockNumber {
			return hexutil.Uint64(svc.PendingNonce(addr)), nil
		}
	}
	if err := requireHeadState(svc, tag); err != nil {
		return nil, err
	}
	return hexutil.Uint64(svc.Nonce(addr)), nil
}

func (m *GetTransactionCountMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
