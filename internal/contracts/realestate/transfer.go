package realestate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

func transferFrom(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	from, to, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
	return nil, transfer(ctx, from, to, id)
}

// safeTransferFrom is transferFrom plus the receiver hook for contract
// recipients.
func safeTransferFrom(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	from, to, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
	if err := transfer(ctx, from, to, id); err != nil {
		return nil, err
	}
	return nil, checkOnReceived(ctx, ctx.Caller, from, to, id)
}

func transfer(ctx *vm.Context, from, to common.Address, id *big.Int) error {
	if to == (common.Address{}) {
		return ctx.Fail("ERC721InvalidReceiver", common.Address{})
	}
	previous, err := update(ctx, to, id, ctx.Caller)
	if err != nil {
		return err
	}
	if previous != from {
		return ctx.Fail("ERC721IncorrectOwner", from, id, previous)
	}
	return nil
}

// approve lets `to` move token id. Only the owner or one of its operators
// may approve.
func approve(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	to, id := args[0].(common.Address), args[1].(*big.Int)
	holder, err := requireOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	if holder != ctx.Caller && !operatorApproved(ctx, holder, ctx.Caller) {
		return nil, ctx.Fail("ERC721InvalidApprover", ctx.Caller)
	}
	ctx.StoreAddress(vm.MapSlot(tokenApprovalsSlot, id), to)
	return nil, ctx.Emit("Approval", holder, to, id)
}

func setApprovalForAll(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	operator, approved := args[0].(common.Address), args[1].(bool)
	if operator == (common.Address{}) {
		return nil, ctx.Fail("ERC721InvalidOperator", operator)
	}
	ctx.StoreBool(vm.MapSlot(vm.MapSlot(operatorsSlot, ctx.Caller), operator), approved)
	return nil, ctx.Emit("ApprovalForAll", ctx.Caller, operator, approved)
}
