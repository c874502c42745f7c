package escrow

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// list registers tokenId for sale and pulls the token into escrow. The
// escrow must be approved for the token beforehand.
func list(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	if err := onlySeller(ctx); err != nil {
		return nil, err
	}
	id := args[0].(*big.Int)
	price := args[1].(*big.Int)
	earnest := args[2].(*big.Int)
	buyerAddr := args[3].(common.Address)

	l := listingOf(ctx, id)
	if l.listed() {
		return nil, vm.Revert(ReasonAlreadyListed)
	}
	if buyerAddr == (common.Address{}) {
		return nil, vm.Revert(ReasonInvalidBuyer)
	}
	if err := moveToken(ctx, ctx.Caller, ctx.Self, id); err != nil {
		return nil, err
	}

	l.setListed(true)
	ctx.StoreUint(l.slot(priceSlot), price)
	ctx.StoreUint(l.slot(escrowSlot), earnest)
	ctx.StoreAddress(l.slot(buyerSlot), buyerAddr)

	// A relisted token starts from a clean slate.
	l.setInspection(false)
	for _, party := range []common.Address{buyerAddr, ctx.LoadAddress(sellerSlot), ctx.LoadAddress(lenderSlot)} {
		l.setApproved(party, false)
	}
	return nil, ctx.Emit("Listed", id, buyerAddr, price, earnest)
}

func depositEarnest(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}
	if err := onlyBuyer(ctx, l); err != nil {
		return nil, err
	}
	if ctx.Value.Cmp(l.escrowAmount()) < 0 {
		return nil, vm.Revert(ReasonInsufficientEarnest)
	}
	l.credit(ctx.Value)
	return nil, ctx.Emit("EarnestDeposited", id, ctx.Caller, ctx.Value)
}

// fund credits value towards a listed token's purchase price, typically the
// lender's share.
func fund(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}
	l.credit(ctx.Value)
	return nil, ctx.Emit("Funded", id, ctx.Caller, ctx.Value)
}

func updateInspectionStatus(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	if err := onlyInspector(ctx); err != nil {
		return nil, err
	}
	id, passed := args[0].(*big.Int), args[1].(bool)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}
	l.setInspection(passed)
	return nil, ctx.Emit("InspectionUpdated", id, passed)
}

// approveSale records the caller's approval. Only the approvals of buyer,
// seller and lender count towards finalization.
func approveSale(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	l := listingOf(ctx, id)
	if err := l.requireListed(); err != nil {
		return nil, err
	}
	l.setApproved(ctx.Caller, true)
	return nil, ctx.Emit("SaleApproved", id, ctx.Caller)
}
