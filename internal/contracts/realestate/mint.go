package realestate

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/vm"
)

// safeMint mints the next token id to `to` and stores its URI. Owner only.
func safeMint(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	if err := onlyOwner(ctx); err != nil {
		return nil, err
	}
	to := args[0].(common.Address)
	uri := args[1].(string)

	id := ctx.LoadUint(nextIDSlot)
	ctx.StoreUint(nextIDSlot, new(big.Int).Add(id, big.NewInt(1)))

	if to == (common.Address{}) {
		return nil, ctx.Fail("ERC721InvalidReceiver", common.Address{})
	}
	previous, err := update(ctx, to, id, common.Address{})
	if err != nil {
		return nil, err
	}
	if previous != (common.Address{}) {
		return nil, ctx.Fail("ERC721InvalidSender", common.Address{})
	}
	if err := checkOnReceived(ctx, ctx.Caller, common.Address{}, to, id); err != nil {
		return nil, err
	}
	ctx.StoreUint(supplySlot, new(big.Int).Add(ctx.LoadUint(supplySlot), big.NewInt(1)))

	ctx.StoreString(vm.MapSlot(urisSlot, id), uri)
	return nil, ctx.Emit("MetadataUpdate", id)
}

// burn destroys a token. The caller must own it or be approved for it.
func burn(ctx *vm.Context, args []interface{}) ([]interface{}, error) {
	id := args[0].(*big.Int)
	previous, err := update(ctx, common.Address{}, id, ctx.Caller)
	if err != nil {
		return nil, err
	}
	if previous == (common.Address{}) {
		return nil, ctx.Fail("ERC721NonexistentToken", id)
	}
	ctx.StoreUint(supplySlot, new(big.Int).Sub(ctx.LoadUint(supplySlot), big.NewInt(1)))
	ctx.StoreString(vm.MapSlot(urisSlot, id), "")
	return nil, nil
}
