package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// Subscription kinds accepted by eth_subscribe.
const (
	SubscriptionNewHeads = "newHeads"
	SubscriptionLogs     = "logs"
)

// SubscribeMethod handles the eth_subscribe RPC method (WebSocket only)
type SubscribeMethod struct{}

func (m *SubscribeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	if ctx.Notifier == nil {
		return nil, rpc_types.RpcErrorUnsupported("notifications not supported")
	}
	var (
		kind   string
		filter *rpc_types.FilterArgs
	)
	if err := rpc_types.ParseParams(params, 1, &kind, &filter); err != nil {
		return nil, err
	}
	switch kind {
	case SubscriptionNewHeads:
		if filter != nil {
			return nil, rpc_types.RpcErrorInvalidParams("newHeads takes no filter")
		}
	case SubscriptionLogs:
		if filter == nil {
			filter = &rpc_types.FilterArgs{}
		}
	default:
		return nil, rpc_types.RpcErrorInvalidParams("unsupported subscription " + kind)
	}
	id, err := ctx.Notifier.Subscribe(kind, filter)
	if err != nil {
		return nil, rpc_types.RpcErrorInternal(err.Error())
	}
	return id, nil
}

func (m *SubscribeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
