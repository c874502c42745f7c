package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/LeJamon/goEscrow/internal/core/state"
)

// MaxCallDepth bounds nested contract calls.
const MaxCallDepth = 64

// BlockContext is the block environment visible to contracts.
type BlockContext struct {
	Number  uint64
	Time    uint64
	ChainID uint64
}

// Runtime executes contract code against a state. A runtime is created per
// transaction or call and is not safe for concurrent use.
type Runtime struct {
	state  *state.StateDB
	block  BlockContext
	origin common.Address
	logs   []*gethtypes.Log
	depth  int
}

// NewRuntime returns a runtime operating on st. origin is the account that
// sent the transaction.
func NewRuntime(st *state.StateDB, block BlockContext, origin common.Address) *Runtime {
	return &Runtime{state: st, block: block, origin: origin}
}

// Logs returns the logs emitted so far, in emission order.
func (r *Runtime) Logs() []*gethtypes.Log {
	return r.logs
}

// State returns the state the runtime writes to.
func (r *Runtime) State() *state.StateDB {
	return r.state
}

// Create deploys a contract of the given kind at CreateAddress(caller, nonce)
// and runs its constructor with the ABI-encoded input.
func (r *Runtime) Create(caller common.Address, nonce uint64, kind string, input []byte, value *big.Int) (common.Address, error) {
	def, ok := Lookup(kind)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %q", ErrUnknownContract, kind)
	}
	addr := crypto.CreateAddress(caller, nonce)
	if r.state.GetCode(addr) != "" {
		return common.Address{}, fmt.Errorf("contract address collision at %s", addr.Hex())
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !def.ABI.Constructor.IsPayable() {
		return common.Address{}, Revert("non-payable constructor")
	}
	if err := r.state.Transfer(caller, addr, value); err != nil {
		return common.Address{}, err
	}
	r.state.SetCode(addr, def.Name)

	if def.Constructor == nil {
		return addr, nil
	}
	args, err := def.ABI.Constructor.Inputs.Unpack(input)
	if err != nil {
		return common.Address{}, Revertf("invalid constructor arguments: %v", err)
	}
	ctx := r.newContext(def, caller, addr, value)
	if _, err := def.Constructor(ctx, args); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Call transfers value from caller to the target and, when the target is a
// contract, dispatches input by its 4-byte selector. Empty input invokes the
// receive handler. Nested calls that fail leave no state changes or logs
// behind.
func (r *Runtime) Call(caller, to common.Address, input []byte, value *big.Int) (ret []byte, err error) {
	if r.depth >= MaxCallDepth {
		return nil, ErrDepthExceeded
	}
	if value == nil {
		value = new(big.Int)
	}
	if r.depth > 0 {
		snapshot, logCount := r.state.Copy(), len(r.logs)
		defer func() {
			if err != nil {
				r.state.Reset(snapshot)
				r.logs = r.logs[:logCount]
			}
		}()
	}

	kind := r.state.GetCode(to)
	if kind == "" {
		return nil, r.state.Transfer(caller, to, value)
	}
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q at %s", ErrUnknownContract, kind, to.Hex())
	}

	r.depth++
	defer func() { r.depth-- }()

	if len(input) == 0 {
		if def.Receive == nil {
			return nil, Revert("no receive function")
		}
		if err := r.state.Transfer(caller, to, value); err != nil {
			return nil, err
		}
		return nil, def.Receive(r.newContext(def, caller, to, value))
	}
	if len(input) < 4 {
		return nil, Revert("invalid calldata")
	}
	method, err := def.ABI.MethodById(input[:4])
	if err != nil {
		return nil, Revertf("unknown selector %#x", input[:4])
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return nil, Revert("non-payable method")
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, Revertf("invalid arguments for %s: %v", method.Name, err)
	}
	if err := r.state.Transfer(caller, to, value); err != nil {
		return nil, err
	}
	out, err := def.Methods[method.Name](r.newContext(def, caller, to, value), args)
	if err != nil {
		return nil, err
	}
	ret, err = method.Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: packing outputs: %w", def.Name, method.Name, err)
	}
	return ret, nil
}

func (r *Runtime) newContext(def *Definition, caller, self common.Address, value *big.Int) *Context {
	return &Context{
		rt:     r,
		def:    def,
		Caller: caller,
		Self:   self,
		Value:  new(big.Int).Set(value),
	}
}
