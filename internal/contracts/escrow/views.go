package escrow

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

func nftAddress(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadAddress(nftSlot)}, nil
}

func seller(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadAddress(sellerSlot)}, nil
}

func inspector(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadAddress(inspectorSlot)}, nil
}

func lender(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.LoadAddress(lenderSlot)}, nil
}

func isListed(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).listed()}, nil
}

func purchasePrice(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).price()}, nil
}

func escrowAmount(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).escrowAmount()}, nil
}

func buyer(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).buyer()}, nil
}

func inspectionPassed(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).inspectionPassed()}, nil
}

func approval(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	l := listingOf(ctx, args[0].(*big.Int))
	return []interface{}{l.approved(args[1].(common.Address))}, nil
}

func deposited(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	return []interface{}{listingOf(ctx, args[0].(*big.Int)).deposited()}, nil
}

func getBalance(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	return []interface{}{ctx.Balance()}, nil
}
