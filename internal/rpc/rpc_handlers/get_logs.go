package rpc_handlers

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// GetLogsMethod handles the eth_getLogs RPC method
type GetLogsMethod struct{}

func (m *GetLogsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var filter rpc_types.FilterArgs
	if err := rpc_types.ParseParams(params, 1, &filter); err != nil {
		return nil, err
	}
	logs, err := ctx.Services.Chain.FilterLogs(ctx.Context, FilterQuery(&filter))
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return logs, nil
}

func (m *GetLogsMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

// FilterQuery converts filter arguments to the chain's query. Block tags
// stay negative and resolve to the head.
func FilterQuery(f *rpc_types.FilterArgs) ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		BlockHash: f.BlockHash,
		Addresses: f.Addresses,
		Topics:    f.Topics,
	}
	if f.FromBlock != nil {
		q.FromBlock = big.NewInt(f.FromBlock.Int64())
	}
	if f.ToBlock != nil {
		q.ToBlock = big.NewInt(f.ToBlock.Int64())
	}
	return q
}
