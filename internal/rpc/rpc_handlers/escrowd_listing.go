package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// ListingMethod handles the escrowd_listing RPC method. It reads every
// per-token field of an Escrow in one round trip.
type ListingMethod struct{}

func (m *ListingMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var (
		addr    common.Address
		tokenID hexutil.Big
	)
	if err := rpc_types.ParseParams(params, 2, &addr, &tokenID); err != nil {
		return nil, err
	}
	backend := bind.NewChainBackend(ctx.Services.Chain)
	contract, err := escrow.New(ctx.Context, addr, backend)
	if errors.Is(err, bind.ErrNoCode) {
		return nil, rpc_types.RpcErrorNotFound("no escrow at " + addr.Hex())
	}
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	l, err := contract.Listing(&bind.CallOpts{Context: ctx.Context}, tokenID.ToInt())
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return &rpc_types.ListingResult{
		Escrow:           addr,
		TokenID:          (*hexutil.Big)(l.TokenID),
		Listed:           l.Listed,
		PurchasePrice:    (*hexutil.Big)(l.PurchasePrice),
		EscrowAmount:     (*hexutil.Big)(l.EscrowAmount),
		Buyer:            l.Buyer,
		InspectionPassed: l.InspectionPassed,
		BuyerApproved:    l.BuyerApproved,
		SellerApproved:   l.SellerApproved,
		LenderApproved:   l.LenderApproved,
		Deposited:        (*hexutil.Big)(l.Deposited),
	}, nil
}

func (m *ListingMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}
