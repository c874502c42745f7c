package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetCodeMethod handles the eth_getCode RPC method. Contracts are native,
// so the code of an account is the name of its contract kind, hex encoded.
// Plain accounts return "0x".
type GetCodeMethod struct{}

func (m *GetCodeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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
	return hexutil.Bytes(svc.Code(addr)), nil
}

func (m *GetCodeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
