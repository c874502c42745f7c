package rpc_types

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// RpcError is a JSON-RPC 2.0 error object.
type RpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return e.Message
}

// ErrorCode returns the JSON-RPC error code.
func (e *RpcError) ErrorCode() int {
	return e.Code
}

// ErrorData returns the error data, if any.
func (e *RpcError) ErrorData() interface{} {
	return e.Data
}

// JSON-RPC error codes.
const (
	RpcPARSE_ERROR      = -32700
	RpcINVALID_REQUEST  = -32600
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603

	// Server errors from the implementation-defined range.
	RpcRESOURCE_NOT_FOUND = -32001
	RpcUNKNOWN_ACCOUNT    = -32002
	RpcTX_REJECTED        = -32003
	RpcUNSUPPORTED        = -32004

	// RpcEXECUTION_REVERTED is returned when a call or transaction
	// reverts. Data carries the hex revert payload.
	RpcEXECUTION_REVERTED = 3
)

func NewRpcError(code int, message string) *RpcError {
	return &RpcError{Code: code, Message: message}
}

func RpcErrorParse(message string) *RpcError {
	return NewRpcError(RpcPARSE_ERROR, "parse error: "+message)
}

func RpcErrorInvalidRequest(message string) *RpcError {
	return NewRpcError(RpcINVALID_REQUEST, "invalid request: "+message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "the method "+method+" does not exist/is not available")
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalid params: "+message)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, message)
}

func RpcErrorNotFound(message string) *RpcError {
	return NewRpcError(RpcRESOURCE_NOT_FOUND, message)
}

func RpcErrorUnknownAccount(message string) *RpcError {
	return NewRpcError(RpcUNKNOWN_ACCOUNT, "unknown account "+message)
}

func RpcErrorTxRejected(message string) *RpcError {
	return NewRpcError(RpcTX_REJECTED, message)
}

func RpcErrorUnsupported(message string) *RpcError {
	return NewRpcError(RpcUNSUPPORTED, message)
}

// RpcErrorReverted converts a contract revert to its JSON-RPC form.
func RpcErrorReverted(rev *vm.RevertError) *RpcError {
	return &RpcError{
		Code:    RpcEXECUTION_REVERTED,
		Message: rev.Error(),
		Data:    hexutil.Encode(rev.Data),
	}
}

// FromError maps an error returned by the chain to an RpcError. Reverts
// keep their payload; anything else is internal.
func FromError(err error) *RpcError {
	var rpcErr *RpcError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if rev, ok := vm.IsRevert(err); ok {
		return RpcErrorReverted(rev)
	}
	switch {
	case errors.Is(err, chain.ErrInsufficientFunds),
		errors.Is(err, chain.ErrNegativeValue),
		errors.Is(err, chain.ErrMissingRecipient),
		errors.Is(err, vm.ErrUnknownContract):
		return RpcErrorTxRejected(err.Error())
	case errors.Is(err, chain.ErrBlockNotFound),
		errors.Is(err, chain.ErrTxNotFound),
		errors.Is(err, chain.ErrReceiptNotFound):
		return RpcErrorNotFound(err.Error())
	}
	return RpcErrorInternal(err.Error())
}
