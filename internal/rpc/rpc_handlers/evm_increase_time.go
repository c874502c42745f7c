package rpc_handlers

import (
	"encoding/json"
	"time"

	"github.com/spf13/cast"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// IncreaseTimeMethod handles the evm_increaseTime RPC method. The argument
// is a number of seconds, as a JSON number or a numeric string; the result
// is the total offset applied so far, in seconds.
type IncreaseTimeMethod struct{}

func (m *IncreaseTimeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var raw interface{}
	if err := rpc_types.ParseParams(params, 1, &raw); err != nil {
		return nil, err
	}
	seconds, err := cast.ToInt64E(raw)
	if err != nil || seconds < 0 {
		return nil, rpc_types.RpcErrorInvalidParams("seconds must be a non-negative number")
	}
	total, err := ctx.Services.Chain.IncreaseTime(ctx.Context, time.Duration(seconds)*time.Second)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return int64(total / time.Second), nil
}

func (m *IncreaseTimeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}
