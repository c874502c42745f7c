package realestate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

func name(*vm.Context, []interface{}) ([]interface{}, error) {
	return []interface{}{Name}, nil
}

func symbol(*vm.Context, []interface{}) ([]interface{}, error) {
	return []interface{}{Symbol}, nil
}

func owner(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadAddress(ownerSlot)}, nil
}

func totalSupply(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadUint(supplySlot)}, nil
}

func balanceOf(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	holder := args[0].(common.Address)
	if holder == (common.Address{}) {
		return nil, ctx.Fail("ERC721InvalidOwner", holder)
	}
	return []interface{}{ctx.LoadUint(vm.MapSlot(balancesSlot, holder))}, nil
}

func ownerOf(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	holder, err := requireOwned(ctx, args[0].(*big.Int))
	if err != nil {
		return nil, err
	}
	return []interface{}{holder}, nil
}

func tokenURI(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	if _, err := requireOwned(ctx, id); err != nil {
		return nil, err
	}
	return []interface{}{ctx.LoadString(vm.MapSlot(urisSlot, id))}, nil
}

func getApproved(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	if _, err := requireOwned(ctx, id); err != nil {
		return nil, err
	}
	return []interface{}{approvedFor(ctx, id)}, nil
}

func isApprovedForAll(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{operatorApproved(ctx, args[0].(common.Address), args[1].(common.Address))}, nil
}
