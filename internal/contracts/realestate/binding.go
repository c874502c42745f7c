package realestate

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/core/types"
)

// RealEstate is a typed binding to a deployed RealEstate contract.
type RealEstate struct {
	*bind.BoundContract
}

// TransferEvent is the decoded Transfer(from, to, tokenId) log.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
}

// Deploy deploys a new RealEstate owned by initialOwner.
func Deploy(opts *bind.TransactOpts, backend bind.Backend, initialOwner common.Address) (common.Address, *types.Receipt, *RealEstate, error) {
	addr, receipt, contract, err := bind.DeployContract(opts, Kind, ABI, backend, initialOwner)
	if err != nil {
		return addr, receipt, nil, err
	}
	return addr, receipt, &RealEstate{BoundContract: contract}, nil
}

// New binds to a RealEstate already deployed at address.
func New(ctx context.Context, address common.Address, backend bind.Backend) (*RealEstate, error) {
	if err := bind.CheckCode(ctx, backend, address, Kind); err != nil {
		return nil, err
	}
	return &RealEstate{BoundContract: bind.NewBoundContract(address, ABI, backend)}, nil
}

func (r *RealEstate) callString(opts *bind.CallOpts, method string, params ...interface{}) (string, error) {
	out, err := r.Call(opts, method, params...)
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (r *RealEstate) callAddress(opts *bind.CallOpts, method string, params ...interface{}) (common.Address, error) {
	out, err := r.Call(opts, method, params...)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *RealEstate) callUint(opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	out, err := r.Call(opts, method, params...)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *RealEstate) Name(opts *bind.CallOpts) (string, error) {
	return r.callString(opts, "name")
}

func (r *RealEstate) Symbol(opts *bind.CallOpts) (string, error) {
	return r.callString(opts, "symbol")
}

func (r *RealEstate) Owner(opts *bind.CallOpts) (common.Address, error) {
	return r.callAddress(opts, "owner")
}

func (r *RealEstate) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return r.callUint(opts, "totalSupply")
}

func (r *RealEstate) BalanceOf(opts *bind.CallOpts, holder common.Address) (*big.Int, error) {
	return r.callUint(opts, "balanceOf", holder)
}

func (r *RealEstate) OwnerOf(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	return r.callAddress(opts, "ownerOf", tokenID)
}

func (r *RealEstate) TokenURI(opts *bind.CallOpts, tokenID *big.Int) (string, error) {
	return r.callString(opts, "tokenURI", tokenID)
}

func (r *RealEstate) GetApproved(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	return r.callAddress(opts, "getApproved", tokenID)
}

func (r *RealEstate) IsApprovedForAll(opts *bind.CallOpts, holder, operator common.Address) (bool, error) {
	out, err := r.Call(opts, "isApprovedForAll", holder, operator)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// SafeMint mints the next token to `to` with the given metadata URI.
func (r *RealEstate) SafeMint(opts *bind.TransactOpts, to common.Address, uri string) (*types.Receipt, error) {
	return r.Transact(opts, "safeMint", to, uri)
}

func (r *RealEstate) Approve(opts *bind.TransactOpts, spender common.Address, tokenID *big.Int) (*types.Receipt, error) {
	return r.Transact(opts, "approve", spender, tokenID)
}

func (r *RealEstate) SetApprovalForAll(opts *bind.TransactOpts, operator common.Address, approved bool) (*types.Receipt, error) {
	return r.Transact(opts, "setApprovalForAll", operator, approved)
}

func (r *RealEstate) TransferFrom(opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int) (*types.Receipt, error) {
	return r.Transact(opts, "transferFrom", from, to, tokenID)
}

func (r *RealEstate) SafeTransferFrom(opts *bind.TransactOpts, from, to common.Address, tokenID *big.Int) (*types.Receipt, error) {
	return r.Transact(opts, "safeTransferFrom", from, to, tokenID)
}

func (r *RealEstate) Burn(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return r.Transact(opts, "burn", tokenID)
}

func (r *RealEstate) TransferOwnership(opts *bind.TransactOpts, newOwner common.Address) (*types.Receipt, error) {
	return r.Transact(opts, "transferOwnership", newOwner)
}

// Transfers decodes the Transfer logs of receipt emitted by this contract.
func (r *RealEstate) Transfers(receipt *types.Receipt) ([]*TransferEvent, error) {
	var events []*TransferEvent
	for _, l := range receipt.Logs {
		if l.Address != r.Address() {
			continue
		}
		ev := new(TransferEvent)
		if err := r.UnpackLog(ev, "Transfer", *l); err != nil {
			if errors.Is(err, bind.ErrEventMismatch) {
				continue
			}
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// MintedID returns the id of the token minted by a SafeMint receipt.
func (r *RealEstate) MintedID(receipt *types.Receipt) (*big.Int, error) {
	events, err := r.Transfers(receipt)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.From == (common.Address{}) {
			return ev.TokenId, nil
		}
	}
	return nil, bind.ErrEventMismatch
}
