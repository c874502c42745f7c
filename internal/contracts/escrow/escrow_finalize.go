package escrow

import (
	"math/big"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// finalizeSale settles a listing: the funds deposited for it go to the
// seller and the token to the buyer.
func finalizeSale(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	if err := onlySeller(ctx); err != nil {
		return nil, err
	}
	id := args[0].(*big.Int)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}
	if !l.inspectionPassed() {
		return nil, vm.Revert(ReasonInspectionFailed)
	}

	buyerAddr := l.buyer()
	sellerAddr := ctx.LoadAddress(sellerSlot)
	if !l.approved(buyerAddr) {
		return nil, vm.Revert(ReasonBuyerApproval)
	}
	if !l.approved(sellerAddr) {
		return nil, vm.Revert(ReasonSellerApproval)
	}
	if !l.approved(ctx.LoadAddress(lenderSlot)) {
		return nil, vm.Revert(ReasonLenderApproval)
	}

	if l.deposited().Cmp(l.price()) < 0 {
		return nil, vm.Revert(ReasonInsufficientFunds)
	}

	l.setListed(false)
	amount := l.release()
	if err := ctx.Transfer(sellerAddr, amount); err != nil {
		return nil, err
	}
	if err := moveToken(ctx, ctx.Self, buyerAddr, id); err != nil {
		return nil, err
	}
	return nil, ctx.Emit("SaleFinalized", id, buyerAddr, amount)
}
