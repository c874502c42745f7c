package escrow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/types"
)

// Escrow is a typed binding to a deployed Escrow contract.
type Escrow struct {
	*bind.BoundContract
}

// Parties are the accounts fixed at deployment.
type Parties struct {
	NFT       common.Address
	Seller    common.Address
	Inspector common.Address
	Lender    common.Address
}

// Listing is the full state of one listed token id.
type Listing struct {
	TokenID          *big.Int
	Listed           bool
	PurchasePrice    *big.Int
	EscrowAmount     *big.Int
	Buyer            common.Address
	InspectionPassed bool
	BuyerApproved    bool
	SellerApproved   bool
	LenderApproved   bool
	Deposited        *big.Int
}

// Deploy deploys a new Escrow over the RealEstate contract at nft.
func Deploy(opts *bind.TransactOpts, backend bind.Backend, nft, seller, inspector, lender common.Address) (common.Address, *types.Receipt, *Escrow, error) {
	addr, receipt, contract, err := bind.DeployContract(opts, Kind, ABI, backend, nft, seller, inspector, lender)
	if err != nil {
		return addr, receipt, nil, err
	}
	return addr, receipt, wrap(contract), nil
}

// New binds to an Escrow already deployed at address.
func New(ctx context.Context, address common.Address, backend bind.Backend) (*Escrow, error) {
	if err := bind.CheckCode(ctx, backend, address, Kind); err != nil {
		return nil, err
	}
	return wrap(bind.NewBoundContract(address, ABI, backend)), nil
}

// wrap makes reverts raised by the RealEstate contract during list, finalize
// and cancel decode to their custom error names.
func wrap(contract *bind.BoundContract) *Escrow {
	contract.DecodeErrorsWith(&realestate.ABI)
	return &Escrow{BoundContract: contract}
}

func (e *Escrow) callAddress(opts *bind.CallOpts, method string, params ...interface{}) (common.Address, error) {
	out, err := e.Call(opts, method, params...)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (e *Escrow) callUint(opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	out, err := e.Call(opts, method, params...)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (e *Escrow) callBool(opts *bind.CallOpts, method string, params ...interface{}) (bool, error) {
	out, err := e.Call(opts, method, params...)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (e *Escrow) NftAddress(opts *bind.CallOpts) (common.Address, error) {
	return e.callAddress(opts, "nftAddress")
}

func (e *Escrow) Seller(opts *bind.CallOpts) (common.Address, error) {
	return e.callAddress(opts, "seller")
}

func (e *Escrow) Inspector(opts *bind.CallOpts) (common.Address, error) {
	return e.callAddress(opts, "inspector")
}

func (e *Escrow) Lender(opts *bind.CallOpts) (common.Address, error) {
	return e.callAddress(opts, "lender")
}

func (e *Escrow) IsListed(opts *bind.CallOpts, tokenID *big.Int) (bool, error) {
	return e.callBool(opts, "isListed", tokenID)
}

func (e *Escrow) PurchasePrice(opts *bind.CallOpts, tokenID *big.Int) (*big.Int, error) {
	return e.callUint(opts, "purchasePrice", tokenID)
}

func (e *Escrow) EscrowAmount(opts *bind.CallOpts, tokenID *big.Int) (*big.Int, error) {
	return e.callUint(opts, "escrowAmount", tokenID)
}

func (e *Escrow) Buyer(opts *bind.CallOpts, tokenID *big.Int) (common.Address, error) {
	return e.callAddress(opts, "buyer", tokenID)
}

func (e *Escrow) InspectionPassed(opts *bind.CallOpts, tokenID *big.Int) (bool, error) {
	return e.callBool(opts, "inspectionPassed", tokenID)
}

func (e *Escrow) Approval(opts *bind.CallOpts, tokenID *big.Int, account common.Address) (bool, error) {
	return e.callBool(opts, "approval", tokenID, account)
}

// Deposited returns the funds held for tokenID.
func (e *Escrow) Deposited(opts *bind.CallOpts, tokenID *big.Int) (*big.Int, error) {
	return e.callUint(opts, "deposited", tokenID)
}

func (e *Escrow) GetBalance(opts *bind.CallOpts) (*big.Int, error) {
	return e.callUint(opts, "getBalance")
}

// Parties reads the four deployment addresses.
func (e *Escrow) Parties(opts *bind.CallOpts) (*Parties, error) {
	var (
		p   Parties
		err error
	)
	if p.NFT, err = e.NftAddress(opts); err != nil {
		return nil, err
	}
	if p.Seller, err = e.Seller(opts); err != nil {
		return nil, err
	}
	if p.Inspector, err = e.Inspector(opts); err != nil {
		return nil, err
	}
	if p.Lender, err = e.Lender(opts); err != nil {
		return nil, err
	}
	return &p, nil
}

// Listing gathers every accessor of tokenID into one view.
func (e *Escrow) Listing(opts *bind.CallOpts, tokenID *big.Int) (*Listing, error) {
	parties, err := e.Parties(opts)
	if err != nil {
		return nil, err
	}
	l := &Listing{TokenID: new(big.Int).Set(tokenID)}
	if l.Listed, err = e.IsListed(opts, tokenID); err != nil {
		return nil, err
	}
	if l.PurchasePrice, err = e.PurchasePrice(opts, tokenID); err != nil {
		return nil, err
	}
	if l.EscrowAmount, err = e.EscrowAmount(opts, tokenID); err != nil {
		return nil, err
	}
	if l.Buyer, err = e.Buyer(opts, tokenID); err != nil {
		return nil, err
	}
	if l.InspectionPassed, err = e.InspectionPassed(opts, tokenID); err != nil {
		return nil, err
	}
	if l.BuyerApproved, err = e.Approval(opts, tokenID, l.Buyer); err != nil {
		return nil, err
	}
	if l.SellerApproved, err = e.Approval(opts, tokenID, parties.Seller); err != nil {
		return nil, err
	}
	if l.LenderApproved, err = e.Approval(opts, tokenID, parties.Lender); err != nil {
		return nil, err
	}
	if l.Deposited, err = e.Deposited(opts, tokenID); err != nil {
		return nil, err
	}
	return l, nil
}

// List registers tokenID for sale. The escrow must already be approved for
// the token.
func (e *Escrow) List(opts *bind.TransactOpts, tokenID, purchasePrice, escrowAmount *big.Int, buyer common.Address) (*types.Receipt, error) {
	return e.Transact(opts, "list", tokenID, purchasePrice, escrowAmount, buyer)
}

// DepositEarnest sends opts.Value as the buyer's earnest money.
func (e *Escrow) DepositEarnest(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return e.Transact(opts, "depositEarnest", tokenID)
}

func (e *Escrow) UpdateInspectionStatus(opts *bind.TransactOpts, tokenID *big.Int, passed bool) (*types.Receipt, error) {
	return e.Transact(opts, "updateInspectionStatus", tokenID, passed)
}

func (e *Escrow) ApproveSale(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return e.Transact(opts, "approveSale", tokenID)
}

func (e *Escrow) FinalizeSale(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return e.Transact(opts, "finalizeSale", tokenID)
}

func (e *Escrow) CancelSale(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return e.Transact(opts, "cancelSale", tokenID)
}

// Fund credits opts.Value towards tokenID's purchase price.
func (e *Escrow) Fund(opts *bind.TransactOpts, tokenID *big.Int) (*types.Receipt, error) {
	return e.Transact(opts, "fund", tokenID)
}
