package vm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Context is what a contract handler sees of the current call.
type Context struct {
	rt  *Runtime
	def *Definition

	// Caller is msg.sender.
	Caller common.Address
	// Self is the address of the executing contract.
	Self common.Address
	// Value is msg.value, already credited to Self.
	Value *big.Int
}

// Block returns the current block environment.
func (c *Context) Block() BlockContext {
	return c.rt.block
}

// Origin returns the account that sent the transaction.
func (c *Context) Origin() common.Address {
	return c.rt.origin
}

// ABI returns the executing contract's ABI.
func (c *Context) ABI() *abi.ABI {
	return &c.def.ABI
}

// Fail returns the custom error name declared in the contract's ABI.
func (c *Context) Fail(name string, args ...interface{}) error {
	return CustomError(&c.def.ABI, name, args...)
}

// Slot returns the storage slot with the given index.
func Slot(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// MapSlot derives the slot of mapping[key] for a mapping rooted at slot,
// keccak256(pad32(key) ++ slot). Nested mappings apply it repeatedly.
func MapSlot(slot common.Hash, key interface{}) common.Hash {
	var k common.Hash
	switch v := key.(type) {
	case common.Address:
		k = common.BytesToHash(v.Bytes())
	case *big.Int:
		k = common.BigToHash(v)
	case common.Hash:
		k = v
	case uint64:
		k = common.BigToHash(new(big.Int).SetUint64(v))
	default:
		panic(fmt.Sprintf("unsupported mapping key %T", key))
	}
	return crypto.Keccak256Hash(k.Bytes(), slot.Bytes())
}

func (c *Context) Load(slot common.Hash) common.Hash {
	return c.rt.state.GetState(c.Self, slot)
}

func (c *Context) Store(slot, value common.Hash) {
	c.rt.state.SetState(c.Self, slot, value)
}

func (c *Context) LoadUint(slot common.Hash) *big.Int {
	return new(big.Int).SetBytes(c.Load(slot).Bytes())
}

func (c *Context) StoreUint(slot common.Hash, v *big.Int) {
	c.Store(slot, common.BigToHash(v))
}

func (c *Context) LoadBool(slot common.Hash) bool {
	return c.Load(slot) != (common.Hash{})
}

func (c *Context) StoreBool(slot common.Hash, v bool) {
	if v {
		c.Store(slot, common.BigToHash(common.Big1))
		return
	}
	c.Store(slot, common.Hash{})
}

func (c *Context) LoadAddress(slot common.Hash) common.Address {
	return common.BytesToAddress(c.Load(slot).Bytes())
}

func (c *Context) StoreAddress(slot common.Hash, addr common.Address) {
	c.Store(slot, common.BytesToHash(addr.Bytes()))
}

// LoadString reads a string kept in the blob map under slot.
func (c *Context) LoadString(slot common.Hash) string {
	return string(c.rt.state.GetBlob(c.Self, slot))
}

func (c *Context) StoreString(slot common.Hash, v string) {
	c.rt.state.SetBlob(c.Self, slot, []byte(v))
}

// Balance returns the executing contract's balance.
func (c *Context) Balance() *big.Int {
	return c.rt.state.GetBalance(c.Self)
}

// BalanceOf returns the balance of any account.
func (c *Context) BalanceOf(addr common.Address) *big.Int {
	return c.rt.state.GetBalance(addr)
}

// IsContract reports whether addr holds a contract.
func (c *Context) IsContract(addr common.Address) bool {
	return c.rt.state.GetCode(addr) != ""
}

// Transfer sends value from the executing contract. Contracts receiving it
// run their receive handler.
func (c *Context) Transfer(to common.Address, amount *big.Int) error {
	if c.rt.state.GetBalance(c.Self).Cmp(amount) < 0 {
		return Revert("insufficient balance for transfer")
	}
	_, err := c.rt.Call(c.Self, to, nil, amount)
	return err
}

// Call invokes method on the contract at to with the executing contract as
// msg.sender and returns the unpacked outputs. contract is the callee's ABI,
// or the subset of it the caller knows.
func (c *Context) Call(to common.Address, contract *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	if !c.IsContract(to) {
		return nil, Revertf("call to non-contract %s", to.Hex())
	}
	ret, err := c.rt.Call(c.Self, to, input, nil)
	if err != nil {
		return nil, err
	}
	return contract.Unpack(method, ret)
}

// Emit appends a log for the named ABI event. args follow the event's input
// order; indexed inputs become topics.
func (c *Context) Emit(event string, args ...interface{}) error {
	ev, ok := c.def.ABI.Events[event]
	if !ok {
		return fmt.Errorf("%s: undeclared event %q", c.def.Name, event)
	}
	if len(args) != len(ev.Inputs) {
		return fmt.Errorf("%s: event %s takes %d arguments, got %d", c.def.Name, event, len(ev.Inputs), len(args))
	}
	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, input := range ev.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		t, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return fmt.Errorf("%s: topic %s: %w", event, input.Name, err)
		}
		topics = append(topics, t[0][0])
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return fmt.Errorf("%s: packing %s: %w", c.def.Name, event, err)
	}
	c.rt.logs = append(c.rt.logs, &gethtypes.Log{
		Address: c.Self,
		Topics:  topics,
		Data:    packed,
	})
	return nil
}
