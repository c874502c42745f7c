package vm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/core/state"
)

const counterABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"start","type":"uint256"}]},
  {"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"add","stateMutability":"nonpayable","inputs":[{"name":"n","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"pay","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"forward","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"n","type":"uint256"}],"outputs":[{"name":"ok","type":"bool"}]},
  {"type":"event","name":"Added","inputs":[{"name":"by","type":"address","indexed":true},{"name":"n","type":"uint256","indexed":false}]},
  {"type":"error","name":"TooLarge","inputs":[{"name":"n","type":"uint256"}]}
]`

var (
	counterParsed = MustParseABI(counterABI)
	countSlot     = Slot(0)
)

func init() {
	Register(&Definition{
		Name: "Counter",
		ABI:  counterParsed,
		Constructor: func(ctx *Context, args []interface{}) ([]interface{}, error) {
			ctx.StoreUint(countSlot, args[0].(*big.Int))
			return nil, nil
		},
		Methods: map[string]Method{
			"count": func(ctx *Context, _ []interface{}) ([]interface{}, error) {
				return []interface{}{ctx.LoadUint(countSlot)}, nil
			},
			"add": func(ctx *Context, args []interface{}) ([]interface{}, error) {
				n := args[0].(*big.Int)
				if n.Cmp(big.NewInt(100)) > 0 {
					return nil, ctx.Fail("TooLarge", n)
				}
				if n.Sign() == 0 {
					return nil, Revert("zero")
				}
				ctx.StoreUint(countSlot, new(big.Int).Add(ctx.LoadUint(countSlot), n))
				return nil, ctx.Emit("Added", ctx.Caller, n)
			},
			"pay": func(ctx *Context, _ []interface{}) ([]interface{}, error) {
				return nil, nil
			},
			"forward": func(ctx *Context, args []interface{}) ([]interface{}, error) {
				_, err := ctx.Call(args[0].(common.Address), ctx.ABI(), "add", args[1])
				return []interface{}{err == nil}, nil
			},
		},
		Receive: func(ctx *Context) error { return nil },
	})
}

var (
	sender = common.HexToAddress("0x5e4d")
	block  = BlockContext{Number: 1, Time: 1000, ChainID: 31337}
)

func deployCounter(t *testing.T, st *state.StateDB, start int64) common.Address {
	t.Helper()
	input, err := counterParsed.Pack("", big.NewInt(start))
	require.NoError(t, err)
	addr, err := NewRuntime(st, block, sender).Create(sender, st.GetNonce(sender), "Counter", input, nil)
	require.NoError(t, err)
	st.SetNonce(sender, st.GetNonce(sender)+1)
	return addr
}

func call(t *testing.T, st *state.StateDB, to common.Address, value *big.Int, method string, args ...interface{}) ([]interface{}, *Runtime, error) {
	t.Helper()
	input, err := counterParsed.Pack(method, args...)
	require.NoError(t, err)
	rt := NewRuntime(st, block, sender)
	ret, err := rt.Call(sender, to, input, value)
	if err != nil {
		return nil, rt, err
	}
	out, err := counterParsed.Unpack(method, ret)
	require.NoError(t, err)
	return out, rt, nil
}

func TestCreateUsesSenderNonce(t *testing.T) {
	st := state.New()
	addr := deployCounter(t, st, 7)
	assert.Equal(t, crypto.CreateAddress(sender, 0), addr)
	assert.Equal(t, "Counter", st.GetCode(addr))

	out, _, err := call(t, st, addr, nil, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(7), out[0].(*big.Int).Int64())

	second := deployCounter(t, st, 0)
	assert.Equal(t, crypto.CreateAddress(sender, 1), second)
}

func TestCreateUnknownKind(t *testing.T) {
	_, err := NewRuntime(state.New(), block, sender).Create(sender, 0, "Nope", nil, nil)
	require.ErrorIs(t, err, ErrUnknownContract)
}

func TestCallEmitsLogs(t *testing.T) {
	st := state.New()
	addr := deployCounter(t, st, 0)

	_, rt, err := call(t, st, addr, nil, "add", big.NewInt(5))
	require.NoError(t, err)

	logs := rt.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, addr, logs[0].Address)
	require.Len(t, logs[0].Topics, 2)
	assert.Equal(t, counterParsed.Events["Added"].ID, logs[0].Topics[0])
	assert.Equal(t, common.BytesToHash(sender.Bytes()), logs[0].Topics[1])

	values, err := counterParsed.Unpack("Added", logs[0].Data)
	require.NoError(t, err)
	assert.Equal(t, int64(5), values[0].(*big.Int).Int64())
}

func TestRevertReasons(t *testing.T) {
	st := state.New()
	addr := deployCounter(t, st, 0)

	_, _, err := call(t, st, addr, nil, "add", big.NewInt(0))
	require.ErrorIs(t, err, ErrExecutionReverted)
	revert, ok := IsRevert(err)
	require.True(t, ok)
	assert.Equal(t, "zero", revert.Reason)

	decoded := NewRevertError(revert.Data)
	assert.Equal(t, "zero", decoded.Reason)

	_, _, err = call(t, st, addr, nil, "add", big.NewInt(101))
	revert, ok = IsRevert(err)
	require.True(t, ok)
	assert.Equal(t, "TooLarge(101)", revert.Reason)
	assert.Equal(t, "TooLarge(101)", NewRevertError(revert.Data, &counterParsed).Reason)
	assert.Empty(t, NewRevertError(revert.Data).Reason)
}

func TestPayableChecks(t *testing.T) {
	st := state.New()
	st.SetBalance(sender, big.NewInt(1000))
	addr := deployCounter(t, st, 0)

	_, _, err := call(t, st, addr, big.NewInt(10), "add", big.NewInt(1))
	revert, ok := IsRevert(err)
	require.True(t, ok)
	assert.Equal(t, "non-payable method", revert.Reason)

	_, _, err = call(t, st, addr, big.NewInt(10), "pay")
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.GetBalance(addr).Int64())

	_, err = NewRuntime(st, block, sender).Call(sender, addr, nil, big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, int64(15), st.GetBalance(addr).Int64())
	assert.Equal(t, int64(985), st.GetBalance(sender).Int64())
}

func TestUnknownSelector(t *testing.T) {
	st := state.New()
	addr := deployCounter(t, st, 0)
	_, err := NewRuntime(st, block, sender).Call(sender, addr, []byte{1, 2, 3, 4}, nil)
	_, ok := IsRevert(err)
	assert.True(t, ok)
}

func TestNestedFailureIsRolledBack(t *testing.T) {
	st := state.New()
	outer := deployCounter(t, st, 0)
	inner := deployCounter(t, st, 0)

	out, rt, err := call(t, st, outer, nil, "forward", inner, big.NewInt(500))
	require.NoError(t, err)
	assert.False(t, out[0].(bool))
	assert.Empty(t, rt.Logs())

	out, rt, err = call(t, st, outer, nil, "forward", inner, big.NewInt(3))
	require.NoError(t, err)
	assert.True(t, out[0].(bool))
	require.Len(t, rt.Logs(), 1)
	assert.Equal(t, inner, rt.Logs()[0].Address)
	assert.Equal(t, common.BytesToHash(outer.Bytes()), rt.Logs()[0].Topics[1])
}

func TestMapSlot(t *testing.T) {
	a := MapSlot(Slot(1), common.HexToAddress("0x01"))
	b := MapSlot(Slot(2), common.HexToAddress("0x01"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, MapSlot(Slot(1), big.NewInt(3)), MapSlot(Slot(1), uint64(3)))
	assert.Panics(t, func() { MapSlot(Slot(1), "x") })
}

func TestRegisterRejectsMissingHandlers(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Definition{Name: "Broken", ABI: counterParsed, Methods: map[string]Method{}})
	})
	assert.Contains(t, Kinds(), "Counter")
}

func TestRevertErrorIsComparable(t *testing.T) {
	err := error(Revert("x"))
	assert.True(t, errors.Is(err, ErrExecutionReverted))
	assert.Equal(t, "execution reverted: x", err.Error())
}
