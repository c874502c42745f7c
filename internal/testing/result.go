package testing

import (
	"errors"

	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// TxResult represents the outcome of a binding transaction.
type TxResult struct {
	// Receipt is nil when the transaction was rejected before mining or the
	// binding did not wait for it.
	Receipt *types.Receipt

	// Err is the error the binding returned.
	Err error
}

// Result pairs the return values of a binding transaction.
func Result(receipt *types.Receipt, err error) TxResult {
	return TxResult{Receipt: receipt, Err: err}
}

// Success reports whether the transaction was mined and succeeded.
func (r TxResult) Success() bool {
	return r.Err == nil && r.Receipt != nil && r.Receipt.Succeeded()
}

// Reverted reports whether the contract reverted.
func (r TxResult) Reverted() bool {
	return errors.Is(r.Err, vm.ErrExecutionReverted)
}

// Reason returns the revert reason, or "" if the transaction did not revert.
func (r TxResult) Reason() string {
	var rev *vm.RevertError
	if errors.As(r.Err, &rev) {
		return rev.Reason
	}
	return ""
}
