package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// toValue converts a handler result to a protobuf Value through its JSON
// form, so hex quantities keep their JSON-RPC encoding.
func toValue(result interface{}) (*structpb.Value, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return structpb.NewValue(generic)
}

// toStatus maps a JSON-RPC error to a gRPC status. The JSON-RPC code and
// data travel in the message.
func toStatus(err *rpc_types.RpcError) error {
	code := codes.Internal
	switch err.Code {
	case rpc_types.RpcPARSE_ERROR, rpc_types.RpcINVALID_REQUEST, rpc_types.RpcINVALID_PARAMS:
		code = codes.InvalidArgument
	case rpc_types.RpcMETHOD_NOT_FOUND:
		code = codes.Unimplemented
	case rpc_types.RpcRESOURCE_NOT_FOUND:
		code = codes.NotFound
	case rpc_types.RpcUNKNOWN_ACCOUNT:
		code = codes.FailedPrecondition
	case rpc_types.RpcTX_REJECTED, rpc_types.RpcEXECUTION_REVERTED:
		code = codes.Aborted
	case rpc_types.RpcUNSUPPORTED:
		code = codes.PermissionDenied
	}
	if data, ok := err.Data.(string); ok && data != "" {
		return status.Errorf(code, "%s (code %d, data %s)", err.Message, err.Code, data)
	}
	return status.Errorf(code, "%s (code %d)", err.Message, err.Code)
}
