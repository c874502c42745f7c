package bind

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/core/vm"
)

var (
	// ErrNoCode is returned when a binding targets an address without a
	// contract of the expected kind.
	ErrNoCode = errors.New("no contract code at given address")

	// ErrEventMismatch is returned when a log does not belong to the
	// requested event.
	ErrEventMismatch = errors.New("event signature mismatch")
)

// CallOpts is the collection of options to fine tune a contract call request.
type CallOpts struct {
	From    common.Address
	Context context.Context
}

// TransactOpts is the collection of data required to submit a transaction.
type TransactOpts struct {
	From    common.Address
	Value   *big.Int
	Context context.Context

	// NoWait returns right after submission with a nil receipt. Needed when
	// the chain does not automine.
	NoWait bool
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// BoundContract is the base wrapper object that reflects a contract on the
// chain.
type BoundContract struct {
	address common.Address
	abi     abi.ABI
	backend Backend

	// errorABIs resolve custom errors bubbling up from callees.
	errorABIs []*abi.ABI

	// LastHash is the hash of the most recent transaction sent through
	// this binding.
	LastHash common.Hash
}

// NewBoundContract creates a low level contract interface through which calls
// and transactions may be made through.
func NewBoundContract(address common.Address, contractABI abi.ABI, backend Backend) *BoundContract {
	return &BoundContract{address: address, abi: contractABI, backend: backend}
}

// Address returns the contract address.
func (c *BoundContract) Address() common.Address { return c.address }

// ABI returns the contract ABI.
func (c *BoundContract) ABI() *abi.ABI { return &c.abi }

// DecodeErrorsWith registers callee ABIs whose custom errors can surface
// in this contract's reverts.
func (c *BoundContract) DecodeErrorsWith(abis ...*abi.ABI) {
	c.errorABIs = append(c.errorABIs, abis...)
}

func (c *BoundContract) revertABIs() []*abi.ABI {
	return append([]*abi.ABI{&c.abi}, c.errorABIs...)
}

// Backend returns the backend the contract is bound to.
func (c *BoundContract) Backend() Backend { return c.backend }

// Call invokes the (constant) contract method with params as input values and
// returns the unpacked outputs.
func (c *BoundContract) Call(opts *CallOpts, method string, params ...interface{}) ([]interface{}, error) {
	if opts == nil {
		opts = new(CallOpts)
	}
	input, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	ret, err := c.backend.CallContract(ensureContext(opts.Context), chain.CallMsg{
		From: opts.From,
		To:   &c.address,
		Data: input,
	})
	if err != nil {
		return nil, c.decodeRevert(err)
	}
	return c.abi.Unpack(method, ret)
}

// Transact invokes the (paid) contract method with params as input values
// and waits for the receipt. A reverted transaction returns its receipt
// together with a *vm.RevertError.
func (c *BoundContract) Transact(opts *TransactOpts, method string, params ...interface{}) (*types.Receipt, error) {
	input, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	return c.transact(opts, &c.address, input, "")
}

// Transfer sends value to the contract with empty calldata, invoking its
// receive handler.
func (c *BoundContract) Transfer(opts *TransactOpts) (*types.Receipt, error) {
	return c.transact(opts, &c.address, nil, "")
}

func (c *BoundContract) transact(opts *TransactOpts, to *common.Address, input []byte, kind string) (*types.Receipt, error) {
	ctx := ensureContext(opts.Context)
	hash, err := c.backend.SendTransaction(ctx, &types.Transaction{
		From:     opts.From,
		To:       to,
		Value:    opts.Value,
		Data:     input,
		Contract: kind,
	})
	if err != nil {
		return nil, err
	}
	c.LastHash = hash
	if opts.NoWait {
		return nil, nil
	}
	receipt, err := WaitMined(ctx, c.backend, hash)
	if err != nil {
		return nil, err
	}
	return receipt, ReceiptError(receipt, c.revertABIs()...)
}

func (c *BoundContract) decodeRevert(err error) error {
	rev, ok := vm.IsRevert(err)
	if !ok || len(rev.Data) == 0 {
		return err
	}
	return vm.NewRevertError(rev.Data, c.revertABIs()...)
}

// ReceiptError converts a failed receipt to a *vm.RevertError, decoding the
// revert data against the given ABIs. It returns nil for a successful
// receipt.
func ReceiptError(receipt *types.Receipt, abis ...*abi.ABI) error {
	if receipt.Succeeded() {
		return nil
	}
	if len(receipt.ReturnData) > 0 {
		return vm.NewRevertError(receipt.ReturnData, abis...)
	}
	return &vm.RevertError{Reason: receipt.RevertReason}
}

// UnpackLog unpacks a retrieved log into the provided output structure.
func (c *BoundContract) UnpackLog(out interface{}, event string, log gethtypes.Log) error {
	ev, ok := c.abi.Events[event]
	if !ok {
		return fmt.Errorf("abi: event %q not found", event)
	}
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return ErrEventMismatch
	}
	if len(log.Data) > 0 {
		if err := c.abi.UnpackIntoInterface(out, event, log.Data); err != nil {
			return err
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return abi.ParseTopics(out, indexed, log.Topics[1:])
}

// DeployContract deploys a contract of the given kind and returns a wrapper.
func DeployContract(opts *TransactOpts, kind string, contractABI abi.ABI, backend Backend, params ...interface{}) (common.Address, *types.Receipt, *BoundContract, error) {
	input, err := contractABI.Pack("", params...)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	c := NewBoundContract(common.Address{}, contractABI, backend)
	cpy := *opts
	cpy.NoWait = false
	receipt, err := c.transact(&cpy, nil, input, kind)
	if err != nil {
		return common.Address{}, receipt, nil, err
	}
	c.address = *receipt.ContractAddress
	return c.address, receipt, c, nil
}

// CheckCode verifies a contract of the given kind lives at addr.
func CheckCode(ctx context.Context, backend Backend, addr common.Address, kind string) error {
	code, err := backend.CodeAt(ctx, addr)
	if err != nil {
		return err
	}
	if code != kind {
		return fmt.Errorf("%w: %s has %q, want %q", ErrNoCode, addr.Hex(), code, kind)
	}
	return nil
}
