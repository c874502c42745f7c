package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrExecutionReverted is wrapped by every RevertError.
	ErrExecutionReverted = errors.New("execution reverted")
	// ErrUnknownContract is returned when deploying an unregistered kind.
	ErrUnknownContract = errors.New("unknown contract kind")
	// ErrDepthExceeded is returned when nested calls recurse too deep.
	ErrDepthExceeded = errors.New("max call depth exceeded")
)

// errorSelector is the 4-byte selector of Error(string).
var errorSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// RevertError is the failure of a contract call. Data is the ABI-encoded
// revert payload: Error(string) for reason strings, or a custom error.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrExecutionReverted.Error()
	}
	return ErrExecutionReverted.Error() + ": " + e.Reason
}

func (e *RevertError) Unwrap() error {
	return ErrExecutionReverted
}

// ErrorCode is the JSON-RPC error code for reverts.
func (e *RevertError) ErrorCode() int {
	return 3
}

// ErrorData returns the hex-encoded revert payload.
func (e *RevertError) ErrorData() interface{} {
	return hexutil.Encode(e.Data)
}

// Revert returns a RevertError carrying reason as Error(string).
func Revert(reason string) *RevertError {
	str, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: str}}.Pack(reason)
	if err != nil {
		panic("can't pack revert reason: " + err.Error())
	}
	data := append(append([]byte{}, errorSelector...), packed...)
	return &RevertError{Reason: reason, Data: data}
}

// Revertf is Revert with formatting.
func Revertf(format string, args ...interface{}) *RevertError {
	return Revert(fmt.Sprintf(format, args...))
}

// CustomError encodes a custom error declared in an ABI, such as
// OwnableUnauthorizedAccount(address).
func CustomError(contract *abi.ABI, name string, args ...interface{}) *RevertError {
	def, ok := contract.Errors[name]
	if !ok {
		panic("undeclared error " + name)
	}
	packed, err := def.Inputs.Pack(args...)
	if err != nil {
		panic("can't pack error " + name + ": " + err.Error())
	}
	data := append(append([]byte{}, def.ID[:4]...), packed...)
	return &RevertError{Reason: formatCustomError(def.Name, args), Data: data}
}

// NewRevertError decodes revert data returned by a node. Error(string)
// payloads yield their reason; other payloads are resolved against the
// given ABIs and otherwise kept raw.
func NewRevertError(data []byte, abis ...*abi.ABI) *RevertError {
	if reason, err := abi.UnpackRevert(data); err == nil {
		return &RevertError{Reason: reason, Data: data}
	}
	if len(data) >= 4 {
		for _, contract := range abis {
			if contract == nil {
				continue
			}
			for _, def := range contract.Errors {
				if string(def.ID[:4]) != string(data[:4]) {
					continue
				}
				values, err := def.Inputs.Unpack(data[4:])
				if err != nil {
					continue
				}
				return &RevertError{Reason: formatCustomError(def.Name, values), Data: data}
			}
		}
	}
	return &RevertError{Data: data}
}

func formatCustomError(name string, args []interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// IsRevert reports whether err is a revert and returns it.
func IsRevert(err error) (*RevertError, bool) {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert, true
	}
	return nil, false
}
