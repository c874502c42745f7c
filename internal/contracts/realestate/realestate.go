// Package realestate implements the RealEstate contract: an ERC-721 token
// with per-token URI storage, owned by a single account that alone may mint.
// Each token is a property deed whose metadata lives at an IPFS URL.
package realestate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

const (
	// Name is the collection name returned by name().
	Name = "Real Estate"
	// Symbol is the collection symbol returned by symbol().
	Symbol = "REAL"
)

// Storage layout.
var (
	ownerSlot          = vm.Slot(0) // Ownable owner
	nextIDSlot         = vm.Slot(1) // next token id to mint
	supplySlot         = vm.Slot(2) // live token count
	ownersSlot         = vm.Slot(3) // tokenId -> owner
	balancesSlot       = vm.Slot(4) // owner -> token count
	tokenApprovalsSlot = vm.Slot(5) // tokenId -> approved address
	operatorsSlot      = vm.Slot(6) // owner -> operator -> bool
	urisSlot           = vm.Slot(7) // tokenId -> uri (blob)
)

func init() {
	vm.Register(&vm.Definition{
		Name:        Kind,
		ABI:         ABI,
		Constructor: construct,
		Methods: map[string]vm.Method{
			"name":              name,
			"symbol":            symbol,
			"owner":             owner,
			"totalSupply":       totalSupply,
			"balanceOf":         balanceOf,
			"ownerOf":           ownerOf,
			"tokenURI":          tokenURI,
			"getApproved":       getApproved,
			"isApprovedForAll":  isApprovedForAll,
			"safeMint":          safeMint,
			"approve":           approve,
			"setApprovalForAll": setApprovalForAll,
			"transferFrom":      transferFrom,
			"safeTransferFrom":  safeTransferFrom,
			"burn":              burn,
			"transferOwnership": transferOwnership,
		},
	})
}

func construct(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	initialOwner := args[0].(common.Address)
	if initialOwner == (common.Address{}) {
		return nil, ctx.Fail("OwnableInvalidOwner", common.Address{})
	}
	return nil, setOwner(ctx, initialOwner)
}

func setOwner(ctx *vm.Context, newOwner common.Address) error {
	previous := ctx.LoadAddress(ownerSlot)
	ctx.StoreAddress(ownerSlot, newOwner)
	return ctx.Emit("OwnershipTransferred", previous, newOwner)
}

func onlyOwner(ctx *vm.Context) error {
	if ctx.LoadAddress(ownerSlot) != ctx.Caller {
		return ctx.Fail("OwnableUnauthorizedAccount", ctx.Caller)
	}
	return nil
}

func transferOwnership(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	if err := onlyOwner(ctx); err != nil {
		return nil, err
	}
	newOwner := args[0].(common.Address)
	if newOwner == (common.Address{}) {
		return nil, ctx.Fail("OwnableInvalidOwner", common.Address{})
	}
	return nil, setOwner(ctx, newOwner)
}

func ownerOfToken(ctx *vm.Context, id *big.Int) common.Address {
	return ctx.LoadAddress(vm.MapSlot(ownersSlot, id))
}

// requireOwned returns the owner of id or ERC721NonexistentToken.
func requireOwned(ctx *vm.Context, id *big.Int) (common.Address, error) {
	holder := ownerOfToken(ctx, id)
	if holder == (common.Address{}) {
		return common.Address{}, ctx.Fail("ERC721NonexistentToken", id)
	}
	return holder, nil
}

func approvedFor(ctx *vm.Context, id *big.Int) common.Address {
	return ctx.LoadAddress(vm.MapSlot(tokenApprovalsSlot, id))
}

func operatorApproved(ctx *vm.Context, holder, operator common.Address) bool {
	return ctx.LoadBool(vm.MapSlot(vm.MapSlot(operatorsSlot, holder), operator))
}

// isAuthorized reports whether spender may move holder's token id.
func isAuthorized(ctx *vm.Context, holder, spender common.Address, id *big.Int) bool {
	return spender != (common.Address{}) &&
		(holder == spender || operatorApproved(ctx, holder, spender) || approvedFor(ctx, id) == spender)
}

func addBalance(ctx *vm.Context, holder common.Address, delta int64) {
	slot := vm.MapSlot(balancesSlot, holder)
	ctx.StoreUint(slot, new(big.Int).Add(ctx.LoadUint(slot), big.NewInt(delta)))
}

// update moves token id to `to` (burning when `to` is zero). A non-zero
// auth must be authorized by the current owner. It returns the previous
// owner.
func update(ctx *vm.Context, to common.Address, id *big.Int, auth common.Address) (common.Address, error) {
	from := ownerOfToken(ctx, id)
	zero := common.Address{}

	if auth != zero && !isAuthorized(ctx, from, auth, id) {
		if from == zero {
			return zero, ctx.Fail("ERC721NonexistentToken", id)
		}
		return zero, ctx.Fail("ERC721InsufficientApproval", auth, id)
	}
	if from != zero {
		ctx.StoreAddress(vm.MapSlot(tokenApprovalsSlot, id), zero)
		addBalance(ctx, from, -1)
	}
	if to != zero {
		addBalance(ctx, to, 1)
	}
	ctx.StoreAddress(vm.MapSlot(ownersSlot, id), to)
	return from, ctx.Emit("Transfer", from, to, id)
}

// checkOnReceived calls the receiver hook when `to` is a contract. A
// missing or reverting hook, or a wrong return value, rejects the transfer.
func checkOnReceived(ctx *vm.Context, operator, from, to common.Address, id *big.Int) error {
	if !ctx.IsContract(to) {
		return nil
	}
	out, err := ctx.Call(to, &ReceiverABI, "onERC721Received", operator, from, id, []byte{})
	if err != nil || out[0].([4]byte) != ReceivedSelector {
		return ctx.Fail("ERC721InvalidReceiver", to)
	}
	return nil
}
