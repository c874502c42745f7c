package rpc_handlers

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// CallMethod handles the eth_call RPC method. A revert is reported with
// code 3 and the revert payload as data.
type CallMethod struct{}

func (m *CallMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		args rpc_types.TransactionArgs
		tag  *rpc.BlockNumberOrHash
	)
	if err := rpc_types.ParseParams(params, 1, &args, &tag); err != nil {
		return nil, err
	}
	if args.To == nil {
		return nil, rpc_types.RpcErrorInvalidParams("missing to address")
	}
	svc := ctx.Services.Chain
	if err := requireHeadState(svc, tag); err != nil {
		return nil, err
	}

	msg := chain.CallMsg{To: args.To, Data: args.CallData()}
	if args.From != nil {
		msg.From = *args.From
	}
	if args.Value != nil {
		msg.Value = args.Value.ToInt()
	}
	out, err := svc.Call(ctx.Context, msg)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return hexutil.Bytes(out), nil
}

func (m *CallMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
