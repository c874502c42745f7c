package rpc

import (
	"encoding/json"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

const jsonrpcVersion = "2.0"

// JSON-RPC 2.0 Request
type JsonRpcRequest struct {
	JsonRpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// isNotification reports whether the request carries no id and so expects
// no response.
func (r *JsonRpcRequest) isNotification() bool {
	return len(r.ID) == 0
}

// JSON-RPC 2.0 Response
type JsonRpcResponse struct {
	JsonRpc string              `json:"jsonrpc"`
	ID      json.RawMessage     `json:"id"`
	Result  interface{}         `json:"result,omitempty"`
	Error   *rpc_types.RpcError `json:"error,omitempty"`
}

// MarshalJSON keeps a null result on success, which omitempty would drop.
func (r JsonRpcResponse) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	if r.Error != nil {
		return json.Marshal(struct {
			JsonRpc string              `json:"jsonrpc"`
			ID      json.RawMessage     `json:"id"`
			Error   *rpc_types.RpcError `json:"error"`
		}{r.JsonRpc, id, r.Error})
	}
	return json.Marshal(struct {
		JsonRpc string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  interface{}     `json:"result"`
	}{r.JsonRpc, id, r.Result})
}

// JSON-RPC 2.0 notification, used for subscriptions.
type JsonRpcNotification struct {
	JsonRpc string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  SubscriptionResult `json:"params"`
}

type SubscriptionResult struct {
	Subscription string      `json:"subscription"`
	Result       interface{} `json:"result"`
}

func errorResponse(id json.RawMessage, err *rpc_types.RpcError) JsonRpcResponse {
	return JsonRpcResponse{JsonRpc: jsonrpcVersion, ID: id, Error: err}
}
