// Package escrow_test runs the Escrow sale lifecycle against a fresh devnet
// per test, once with in-process bindings and once over JSON-RPC.
package escrow_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	jtx "github.com/LeJamon/goEscrow/internal/testing"
	sale "github.com/LeJamon/goEscrow/internal/testing/escrow"
)

type LifecycleSuite struct {
	suite.Suite

	newEnv func(t *testing.T) *jtx.TestEnv

	env    *jtx.TestEnv
	token  *realestate.RealEstate
	escrow *escrow.Escrow
	sale   *sale.Sale
}

func TestLifecycleInProcess(t *testing.T) {
	suite.Run(t, &LifecycleSuite{newEnv: jtx.NewTestEnv})
}

func TestLifecycleRPC(t *testing.T) {
	suite.Run(t, &LifecycleSuite{newEnv: jtx.NewRPCTestEnv})
}

// SetupTest deploys the deeds and an Escrow, then lists token 0 for 10
// ether with 5 ether earnest.
func (s *LifecycleSuite) SetupTest() {
	s.env = s.newEnv(s.T())
	s.token, s.escrow = s.env.DeployMarket()
	s.sale = sale.NewSale(s.env, s.token, s.escrow)

	jtx.RequireTxSuccess(s.T(), s.sale.ApproveEscrow())
	jtx.RequireTxSuccess(s.T(), s.sale.List())
}

func (s *LifecycleSuite) TestDeployment() {
	t := s.T()

	nft, err := s.escrow.NftAddress(nil)
	require.NoError(t, err)
	s.Equal(s.token.Address(), nft)

	seller, err := s.escrow.Seller(nil)
	require.NoError(t, err)
	s.Equal(s.env.Seller().Address, seller)

	inspector, err := s.escrow.Inspector(nil)
	require.NoError(t, err)
	s.Equal(s.env.Inspector().Address, inspector)

	lender, err := s.escrow.Lender(nil)
	require.NoError(t, err)
	s.Equal(s.env.Lender().Address, lender)
}

func (s *LifecycleSuite) TestListing() {
	t := s.T()
	id := s.sale.ID()

	jtx.RequireListed(t, s.escrow, 0, true)
	jtx.RequireOwner(t, s.token, 0, s.escrow.Address())

	price, err := s.escrow.PurchasePrice(nil, id)
	require.NoError(t, err)
	s.Equal(jtx.Ether(10).String(), price.String())

	earnest, err := s.escrow.EscrowAmount(nil, id)
	require.NoError(t, err)
	s.Equal(jtx.Ether(5).String(), earnest.String())

	buyer, err := s.escrow.Buyer(nil, id)
	require.NoError(t, err)
	s.Equal(s.env.Buyer().Address, buyer)
}

func (s *LifecycleSuite) TestListingRejections() {
	t := s.T()

	// already listed
	jtx.RequireTxRevert(t, s.sale.List(), escrow.ReasonAlreadyListed)

	// only the seller lists
	other := sale.NewSale(s.env, s.token, s.escrow).Token(1)
	jtx.RequireTxRevert(t, other.ListAs(s.env.Buyer()), escrow.ReasonOnlySeller)
	jtx.RequireListed(t, s.escrow, 1, false)
}

func (s *LifecycleSuite) TestDeposit() {
	t := s.T()
	before := s.env.Balance(s.env.Buyer())

	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(5))
	jtx.RequireBalanceChange(t, s.env, s.env.Buyer(), before, jtx.Diff(jtx.Wei(0), jtx.Ether(5)))
}

func (s *LifecycleSuite) TestDepositRejections() {
	t := s.T()

	jtx.RequireTxRevert(t, s.sale.DepositAs(s.env.Seller(), jtx.Ether(5)), escrow.ReasonOnlyBuyer)
	jtx.RequireTxRevert(t, s.sale.DepositAs(s.env.Buyer(), jtx.Ether(4)), escrow.ReasonInsufficientEarnest)
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Wei(0))
}

func (s *LifecycleSuite) TestInspection() {
	t := s.T()

	jtx.RequireTxSuccess(t, s.sale.Inspect(true))
	passed, err := s.escrow.InspectionPassed(nil, s.sale.ID())
	require.NoError(t, err)
	s.True(passed)

	jtx.RequireTxRevert(t, s.sale.InspectAs(s.env.Buyer(), false), escrow.ReasonOnlyInspector)
}

func (s *LifecycleSuite) TestApprovals() {
	t := s.T()

	for _, acc := range []*jtx.Account{s.env.Buyer(), s.env.Seller(), s.env.Lender()} {
		jtx.RequireApproval(t, s.escrow, 0, acc, false)
		jtx.RequireTxSuccess(t, s.sale.Approve(acc))
		jtx.RequireApproval(t, s.escrow, 0, acc, true)
	}
	jtx.RequireApproval(t, s.escrow, 0, s.env.Inspector(), false)
}

func (s *LifecycleSuite) TestSale() {
	t := s.T()
	sellerBefore := s.env.Balance(s.env.Seller())

	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(5))

	jtx.RequireTxSuccess(t, s.sale.Inspect(true))
	jtx.RequireTxSuccess(t, s.sale.ApproveAll())

	jtx.RequireTxSuccess(t, s.sale.Fund())
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(10))

	jtx.RequireTxSuccess(t, s.sale.Finalize())

	jtx.RequireOwner(t, s.token, 0, s.env.Buyer().Address)
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Wei(0))
	jtx.RequireListed(t, s.escrow, 0, false)
	jtx.RequireBalanceChange(t, s.env, s.env.Seller(), sellerBefore, jtx.Ether(10))
}

func (s *LifecycleSuite) TestFinalizeRequirements() {
	t := s.T()

	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireTxRevert(t, s.sale.Finalize(), escrow.ReasonInspectionFailed)

	jtx.RequireTxSuccess(t, s.sale.Inspect(true))
	jtx.RequireTxRevert(t, s.sale.Finalize(), escrow.ReasonBuyerApproval)

	jtx.RequireTxSuccess(t, s.sale.Approve(s.env.Buyer()))
	jtx.RequireTxRevert(t, s.sale.Finalize(), escrow.ReasonSellerApproval)

	jtx.RequireTxSuccess(t, s.sale.Approve(s.env.Seller()))
	jtx.RequireTxRevert(t, s.sale.Finalize(), escrow.ReasonLenderApproval)

	jtx.RequireTxSuccess(t, s.sale.Approve(s.env.Lender()))
	jtx.RequireTxRevert(t, s.sale.Finalize(), escrow.ReasonInsufficientFunds)

	jtx.RequireTxSuccess(t, s.sale.Fund())
	jtx.RequireTxRevert(t, s.sale.FinalizeAs(s.env.Buyer()), escrow.ReasonOnlySeller)
	jtx.RequireTxSuccess(t, s.sale.Finalize())
}

func (s *LifecycleSuite) TestCancelAfterFailedInspection() {
	t := s.T()
	buyerBefore := s.env.Balance(s.env.Buyer())

	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireTxSuccess(t, s.sale.Inspect(false))
	jtx.RequireTxSuccess(t, s.sale.Cancel(s.env.Buyer()))

	// earnest goes back to the buyer, the deed to the seller
	jtx.RequireBalance(t, s.env, s.env.Buyer(), buyerBefore)
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Wei(0))
	jtx.RequireOwner(t, s.token, 0, s.env.Seller().Address)
	jtx.RequireListed(t, s.escrow, 0, false)
}

func (s *LifecycleSuite) TestCancelAfterPassedInspection() {
	t := s.T()
	sellerBefore := s.env.Balance(s.env.Seller())

	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireTxSuccess(t, s.sale.Inspect(true))
	jtx.RequireTxRevert(t, s.sale.Cancel(s.env.Lender()), escrow.ReasonOnlyParty)
	jtx.RequireTxSuccess(t, s.sale.Cancel(s.env.Seller()))

	jtx.RequireBalanceChange(t, s.env, s.env.Seller(), sellerBefore, jtx.Ether(5))
	jtx.RequireOwner(t, s.token, 0, s.env.Seller().Address)
}

func (s *LifecycleSuite) TestSecondSaleOnAnotherDeed() {
	t := s.T()

	// token 1 sells to another account while token 0 stays listed
	other := sale.NewSale(s.env, s.token, s.escrow).
		Token(1).
		Buyer(s.env.Account("account5")).
		Price(jtx.Ether(20)).
		Earnest(jtx.Ether(2))
	jtx.RequireTxSuccess(t, other.Ready())
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(20))
	jtx.RequireTxSuccess(t, other.Finalize())

	jtx.RequireOwner(t, s.token, 1, s.env.Account("account5").Address)
	jtx.RequireOwner(t, s.token, 0, s.escrow.Address())
	jtx.RequireListed(t, s.escrow, 0, true)
}

func (s *LifecycleSuite) TestFundedListingsSettleIndependently() {
	t := s.T()
	other := s.env.Account("account5")
	sellerBefore := s.env.Balance(s.env.Seller())

	// token 0: ready to finalize, holding 10 ether
	jtx.RequireTxSuccess(t, s.sale.Deposit())
	jtx.RequireTxSuccess(t, s.sale.Inspect(true))
	jtx.RequireTxSuccess(t, s.sale.ApproveAll())
	jtx.RequireTxSuccess(t, s.sale.Fund())

	// token 1: listed to another buyer, holding 2 ether earnest
	second := sale.NewSale(s.env, s.token, s.escrow).
		Token(1).
		Buyer(other).
		Price(jtx.Ether(20)).
		Earnest(jtx.Ether(2))
	jtx.RequireTxSuccess(t, second.ApproveEscrow())
	jtx.RequireTxSuccess(t, second.List())
	otherBefore := s.env.Balance(other)
	jtx.RequireTxSuccess(t, second.Deposit())
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(12))

	// cancelling token 1 refunds its buyer's earnest and nothing more
	jtx.RequireTxSuccess(t, second.Inspect(false))
	jtx.RequireTxSuccess(t, second.Cancel(other))
	jtx.RequireBalance(t, s.env, other, otherBefore)
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Ether(10))

	held, err := s.escrow.Deposited(nil, s.sale.ID())
	require.NoError(t, err)
	s.Equal(jtx.Ether(10).String(), held.String())

	// finalizing token 0 pays the seller its own 10 ether
	jtx.RequireTxSuccess(t, s.sale.Finalize())
	jtx.RequireBalanceChange(t, s.env, s.env.Seller(), sellerBefore, jtx.Ether(10))
	jtx.RequireEscrowBalance(t, s.escrow, jtx.Wei(0))
	jtx.RequireOwner(t, s.token, 0, s.env.Buyer().Address)
	jtx.RequireOwner(t, s.token, 1, s.env.Seller().Address)
}
