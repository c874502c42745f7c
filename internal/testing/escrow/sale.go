// Package escrow drives Escrow sales through their lifecycle in tests.
package escrow

import (
	"math/big"

	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/testing"
)

// Default sale terms, in ether.
const (
	DefaultPrice   = 10
	DefaultEarnest = 5
)

// Sale provides a fluent interface for walking one token through a sale.
// Each step sends its transaction immediately and returns the result; the
// builder methods only change the terms used by later steps.
type Sale struct {
	env    *testing.TestEnv
	token  *realestate.RealEstate
	escrow *escrow.Escrow

	id      *big.Int
	price   *big.Int
	earnest *big.Int
	buyer   *testing.Account
}

// NewSale creates a sale of token 0 for 10 ether with 5 ether earnest to
// the default buyer.
func NewSale(env *testing.TestEnv, token *realestate.RealEstate, sale *escrow.Escrow) *Sale {
	return &Sale{
		env:     env,
		token:   token,
		escrow:  sale,
		id:      testing.TokenID(0),
		price:   testing.Ether(DefaultPrice),
		earnest: testing.Ether(DefaultEarnest),
		buyer:   env.Buyer(),
	}
}

// Token selects the token sold.
func (s *Sale) Token(id int64) *Sale {
	s.id = testing.TokenID(id)
	return s
}

// Price sets the purchase price in wei.
func (s *Sale) Price(wei *big.Int) *Sale {
	s.price = wei
	return s
}

// Earnest sets the escrow amount in wei.
func (s *Sale) Earnest(wei *big.Int) *Sale {
	s.earnest = wei
	return s
}

// Buyer sets the buyer.
func (s *Sale) Buyer(acc *testing.Account) *Sale {
	s.buyer = acc
	return s
}

// ID returns the token id.
func (s *Sale) ID() *big.Int { return s.id }

// Remainder returns the price not covered by the earnest, which the lender
// sends.
func (s *Sale) Remainder() *big.Int {
	return testing.Diff(s.price, s.earnest)
}

// ApproveEscrow lets the escrow take custody of the token.
func (s *Sale) ApproveEscrow() testing.TxResult {
	return testing.Result(s.token.Approve(s.env.As(s.env.Seller()), s.escrow.Address(), s.id))
}

// List lists the token as the seller.
func (s *Sale) List() testing.TxResult {
	return s.ListAs(s.env.Seller())
}

// ListAs lists the token from acc.
func (s *Sale) ListAs(acc *testing.Account) testing.TxResult {
	return testing.Result(s.escrow.List(s.env.As(acc), s.id, s.price, s.earnest, s.buyer.Address))
}

// Deposit deposits the earnest as the buyer.
func (s *Sale) Deposit() testing.TxResult {
	return s.DepositAs(s.buyer, s.earnest)
}

// DepositAs deposits value from acc.
func (s *Sale) DepositAs(acc *testing.Account, value *big.Int) testing.TxResult {
	return testing.Result(s.escrow.DepositEarnest(s.env.AsWithValue(acc, value), s.id))
}

// Inspect records the inspection as the inspector.
func (s *Sale) Inspect(passed bool) testing.TxResult {
	return s.InspectAs(s.env.Inspector(), passed)
}

// InspectAs records the inspection from acc.
func (s *Sale) InspectAs(acc *testing.Account, passed bool) testing.TxResult {
	return testing.Result(s.escrow.UpdateInspectionStatus(s.env.As(acc), s.id, passed))
}

// Approve approves the sale from acc.
func (s *Sale) Approve(acc *testing.Account) testing.TxResult {
	return testing.Result(s.escrow.ApproveSale(s.env.As(acc), s.id))
}

// ApproveAll approves the sale as buyer, seller and lender, stopping at the
// first failure.
func (s *Sale) ApproveAll() testing.TxResult {
	var r testing.TxResult
	for _, acc := range []*testing.Account{s.buyer, s.env.Seller(), s.env.Lender()} {
		if r = s.Approve(acc); r.Err != nil {
			return r
		}
	}
	return r
}

// Fund sends the remainder of the price from the lender.
func (s *Sale) Fund() testing.TxResult {
	return s.FundAs(s.env.Lender(), s.Remainder())
}

// FundAs credits value towards the sale's price from acc.
func (s *Sale) FundAs(acc *testing.Account, value *big.Int) testing.TxResult {
	return testing.Result(s.escrow.Fund(s.env.AsWithValue(acc, value), s.id))
}

// Finalize completes the sale as the seller.
func (s *Sale) Finalize() testing.TxResult {
	return s.FinalizeAs(s.env.Seller())
}

// FinalizeAs completes the sale from acc.
func (s *Sale) FinalizeAs(acc *testing.Account) testing.TxResult {
	return testing.Result(s.escrow.FinalizeSale(s.env.As(acc), s.id))
}

// Cancel cancels the sale from acc.
func (s *Sale) Cancel(acc *testing.Account) testing.TxResult {
	return testing.Result(s.escrow.CancelSale(s.env.As(acc), s.id))
}

// Ready walks the sale up to, but not including, finalization: approve
// custody, list, deposit, pass inspection, approve and fund. It returns the
// first failing step.
func (s *Sale) Ready() testing.TxResult {
	steps := []func() testing.TxResult{
		s.ApproveEscrow,
		s.List,
		s.Deposit,
		func() testing.TxResult { return s.Inspect(true) },
		s.ApproveAll,
		s.Fund,
	}
	var r testing.TxResult
	for _, step := range steps {
		if r = step(); r.Err != nil {
			return r
		}
	}
	return r
}
