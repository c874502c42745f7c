package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetBalanceMethod handles the eth_getBalance RPC method
type GetBalanceMethod struct{}

func (m *GetBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		addr common.Address
		tag  *rpc.BlockNumberOrHash
	)
	if err := rpc_types.ParseParams(params, 1, &addr, &tag); err != nil {
		return nil, err
	}
	svc := ctx.Services.Chain
	if err := requireHeadState(svc, tag); err != nil {
		return nil, err
	}
	return (*hexutil.Big)(svc.Balance(addr)), nil
}

func (m *GetBalanceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
