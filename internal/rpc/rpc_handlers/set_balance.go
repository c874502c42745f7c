package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// SetBalanceMethod handles the hardhat_setBalance RPC method
type SetBalanceMethod struct{}

func (m *SetBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		addr   common.Address
		amount hexutil.Big
	)
	if err := rpc_types.ParseParams(params, 2, &addr, &amount); err != nil {
		return nil, err
	}
	if amount.ToInt().Sign() < 0 {
		return nil, rpc_types.RpcErrorInvalidParams("balance must not be negative")
	}
	if err := ctx.Services.Chain.SetBalance(ctx.Context, addr, amount.ToInt()); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return true, nil
}

func (m *SetBalanceMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
