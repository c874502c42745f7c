package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// SendTransactionMethod handles the eth_sendTransaction RPC method.
// The sender must be one of the devnet signers. A transaction without a
// recipient deploys the contract kind named by "contract".
type SendTransactionMethod struct{}

func (m *SendTransactionMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var args rpc_types.TransactionArgs
	if err := rpc_types.ParseParams(params, 1, &args); err != nil {
		return nil, err
	}
	svc := ctx.Services.Chain
	if err := requireSigner(svc, args.From); err != nil {
		return nil, err
	}
	if args.To == nil && args.Contract == "" {
		return nil, rpc_types.RpcErrorInvalidParams("contract creation needs a contract kind")
	}

	tx := &types.Transaction{
		From:     *args.From,
		To:       args.To,
		Data:     args.CallData(),
		Contract: args.Contract,
	}
	if args.Value != nil {
		tx.Value = args.Value.ToInt()
	}
	hash, err := svc.SendTransaction(ctx.Context, tx)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return hash, nil
}

func (m *SendTransactionMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
