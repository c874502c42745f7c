package escrow

import (
	"math/big"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// cancelSale unwinds a listing. When the inspection did not pass the funds
// deposited for it are refunded to the buyer, otherwise they go to the
// seller. The token returns to the seller either way.
func cancelSale(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}

	buyerAddr := l.buyer()
	sellerAddr := ctx.LoadAddress(sellerSlot)
	switch ctx.Caller {
	case buyerAddr, sellerAddr, ctx.LoadAddress(inspectorSlot):
	default:
		return nil, vm.Revert(ReasonOnlyParty)
	}

	refundTo := sellerAddr
	if !l.inspectionPassed() {
		refundTo = buyerAddr
	}

	l.setListed(false)
	amount := l.release()
	if err := ctx.Transfer(refundTo, amount); err != nil {
		return nil, err
	}
	if err := moveToken(ctx, ctx.Self, sellerAddr, id); err != nil {
		return nil, err
	}
	return nil, ctx.Emit("SaleCancelled", id, refundTo, amount)
}
