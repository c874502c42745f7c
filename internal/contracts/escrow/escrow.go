// Package escrow implements the Escrow contract, which settles the sale of a
// RealEstate token between a seller and a buyer.
//
// The seller lists a token, moving it into the contract's custody. The buyer
// deposits earnest money, the inspector records the inspection outcome, and
// buyer, seller and lender each approve the sale. Once the lender has sent
// the remainder of the purchase price the seller finalizes: the funds held
// for that token go to the seller and the token to the buyer. A listing can
// be cancelled instead, refunding the buyer when the inspection did not pass.
//
// One contract serves many listings, so every wei is credited to a token id
// and only that token's funds move when its listing settles.
package escrow

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// Storage layout.
var (
	nftSlot       = vm.Slot(0)
	sellerSlot    = vm.Slot(1)
	inspectorSlot = vm.Slot(2)
	lenderSlot    = vm.Slot(3)

	// Per listing, keyed by token id.
	listedSlot     = vm.Slot(4)
	priceSlot      = vm.Slot(5)
	escrowSlot     = vm.Slot(6)
	buyerSlot      = vm.Slot(7)
	inspectionSlot = vm.Slot(8)
	approvalSlot   = vm.Slot(9) // tokenId -> account -> bool
	depositedSlot  = vm.Slot(10)
)

func init() {
	vm.Register(&vm.Definition{
		Name:        Kind,
		ABI:         ABI,
		Constructor: construct,
		Methods: map[string]vm.Method{
			"nftAddress":             nftAddress,
			"seller":                 seller,
			"inspector":              inspector,
			"lender":                 lender,
			"isListed":               isListed,
			"purchasePrice":          purchasePrice,
			"escrowAmount":           escrowAmount,
			"buyer":                  buyer,
			"inspectionPassed":       inspectionPassed,
			"approval":               approval,
			"deposited":              deposited,
			"getBalance":             getBalance,
			"list":                   list,
			"depositEarnest":         depositEarnest,
			"fund":                   fund,
			"updateInspectionStatus": updateInspectionStatus,
			"approveSale":            approveSale,
			"finalizeSale":           finalizeSale,
			"cancelSale":             cancelSale,
			"onERC721Received":       onERC721Received,
		},
	})
}

func construct(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	ctx.StoreAddress(nftSlot, args[0].(common.Address))
	ctx.StoreAddress(sellerSlot, args[1].(common.Address))
	ctx.StoreAddress(inspectorSlot, args[2].(common.Address))
	ctx.StoreAddress(lenderSlot, args[3].(common.Address))
	return nil, nil
}

// listing is the stored state of one token id.
type listing struct {
	id  *big.Int
	ctx *vm.Context
}

func listingOf(ctx *vm.Context, id *big.Int) listing {
	return listing{id: id, ctx: ctx}
}

func (l listing) slot(root common.Hash) common.Hash {
	return vm.MapSlot(root, l.id)
}

func (l listing) listed() bool              { return l.ctx.LoadBool(l.slot(listedSlot)) }
func (l listing) price() *big.Int           { return l.ctx.LoadUint(l.slot(priceSlot)) }
func (l listing) escrowAmount() *big.Int    { return l.ctx.LoadUint(l.slot(escrowSlot)) }
func (l listing) buyer() common.Address     { return l.ctx.LoadAddress(l.slot(buyerSlot)) }
func (l listing) inspectionPassed() bool    { return l.ctx.LoadBool(l.slot(inspectionSlot)) }
func (l listing) setListed(v bool)          { l.ctx.StoreBool(l.slot(listedSlot), v) }
func (l listing) setInspection(passed bool) { l.ctx.StoreBool(l.slot(inspectionSlot), passed) }
func (l listing) deposited() *big.Int       { return l.ctx.LoadUint(l.slot(depositedSlot)) }

func (l listing) credit(amount *big.Int) {
	l.ctx.StoreUint(l.slot(depositedSlot), new(big.Int).Add(l.deposited(), amount))
}

// release zeroes the funds held for the listing and returns them.
func (l listing) release() *big.Int {
	amount := l.deposited()
	l.ctx.StoreUint(l.slot(depositedSlot), new(big.Int))
	return amount
}

func (l listing) approved(account common.Address) bool {
	return l.ctx.LoadBool(vm.MapSlot(l.slot(approvalSlot), account))
}

func (l listing) setApproved(account common.Address, v bool) {
	l.ctx.StoreBool(vm.MapSlot(l.slot(approvalSlot), account), v)
}

func (l listing) requireListed() error {
	if !l.listed() {
		return vm.Revert(ReasonNotListed)
	}
	return nil
}

func onlySeller(ctx *vm.Context) error {
	if ctx.Caller != ctx.LoadAddress(sellerSlot) {
		return vm.Revert(ReasonOnlySeller)
	}
	return nil
}

func onlyInspector(ctx *vm.Context) error {
	if ctx.Caller != ctx.LoadAddress(inspectorSlot) {
		return vm.Revert(ReasonOnlyInspector)
	}
	return nil
}

func onlyBuyer(ctx *vm.Context, l listing) error {
	if ctx.Caller != l.buyer() {
		return vm.Revert(ReasonOnlyBuyer)
	}
	return nil
}

// moveToken transfers the token held under id through the RealEstate
// contract, with the escrow as msg.sender.
func moveToken(ctx *vm.Context, from, to common.Address, id *big.Int) error {
	_, err := ctx.Call(ctx.LoadAddress(nftSlot), &realestate.ABI, "transferFrom", from, to, id)
	return err
}

// onERC721Received accepts safe transfers of tokens from the configured
// RealEstate contract only.
func onERC721Received(ctx *vm.Context, _ []interface{}) ([]interface{}, error) {
	if ctx.Caller != ctx.LoadAddress(nftSlot) {
		return nil, vm.Revert(ReasonUnsupportedToken)
	}
	return []interface{}{realestate.ReceivedSelector}, nil
}
