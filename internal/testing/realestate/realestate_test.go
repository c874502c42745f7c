// Package realestate_test checks the deployment module's deeds against a
// fresh devnet per test, in-process and over JSON-RPC.
package realestate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/deploy"
	jtx "github.com/LeJamon/goEscrow/internal/testing"
)

type DeedSuite struct {
	suite.Suite

	newEnv func(t *testing.T) *jtx.TestEnv

	env   *jtx.TestEnv
	token *realestate.RealEstate
}

func TestDeedsInProcess(t *testing.T) {
	suite.Run(t, &DeedSuite{newEnv: jtx.NewTestEnv})
}

func TestDeedsRPC(t *testing.T) {
	suite.Run(t, &DeedSuite{newEnv: jtx.NewRPCTestEnv})
}

func (s *DeedSuite) SetupTest() {
	s.env = s.newEnv(s.T())
	s.token = s.env.Deploy()
}

func (s *DeedSuite) TestCollection() {
	t := s.T()

	name, err := s.token.Name(nil)
	require.NoError(t, err)
	s.Equal(realestate.Name, name)

	symbol, err := s.token.Symbol(nil)
	require.NoError(t, err)
	s.Equal(realestate.Symbol, symbol)

	owner, err := s.token.Owner(nil)
	require.NoError(t, err)
	s.Equal(s.env.Seller().Address, owner)
}

func (s *DeedSuite) TestMintedDeeds() {
	t := s.T()

	supply, err := s.token.TotalSupply(nil)
	require.NoError(t, err)
	s.Equal(int64(deploy.DefaultMintCount), supply.Int64())

	held, err := s.token.BalanceOf(nil, s.env.Seller().Address)
	require.NoError(t, err)
	s.Equal(int64(3), held.Int64())

	for id := int64(0); id < 3; id++ {
		jtx.RequireOwner(t, s.token, id, s.env.Seller().Address)
		uri, err := s.token.TokenURI(nil, jtx.TokenID(id))
		require.NoError(t, err)
		s.Equal(fmt.Sprintf("%s/%d.json", deploy.DefaultBaseURL, id+1), uri)
	}

	d := s.env.Deployment()
	s.Len(d.Tokens, 3)
	s.Len(d.TxHashes, 4)
}

func (s *DeedSuite) TestNonexistentDeed() {
	_, err := s.token.OwnerOf(nil, jtx.TokenID(7))
	jtx.RequireRevert(s.T(), err, "ERC721NonexistentToken(7)")
}

func (s *DeedSuite) TestOnlyOwnerMints() {
	t := s.T()
	buyer := s.env.Buyer()

	_, err := s.token.SafeMint(s.env.As(buyer), buyer.Address, deploy.TokenURI(deploy.DefaultBaseURL, 3))
	jtx.RequireRevert(t, err, fmt.Sprintf("OwnableUnauthorizedAccount(%s)", buyer.Address.Hex()))

	receipt, err := s.token.SafeMint(s.env.As(s.env.Seller()), buyer.Address, deploy.TokenURI(deploy.DefaultBaseURL, 3))
	jtx.RequireTxSuccess(t, jtx.Result(receipt, err))
	id, err := s.token.MintedID(receipt)
	require.NoError(t, err)
	s.Equal(int64(3), id.Int64())
	jtx.RequireOwner(t, s.token, 3, buyer.Address)
}

func (s *DeedSuite) TestTransfer() {
	t := s.T()
	seller, buyer, lender := s.env.Seller(), s.env.Buyer(), s.env.Lender()

	// the buyer holds no approval
	_, err := s.token.TransferFrom(s.env.As(buyer), seller.Address, buyer.Address, jtx.TokenID(0))
	require.Error(t, err)
	jtx.RequireOwner(t, s.token, 0, seller.Address)

	jtx.RequireTxSuccess(t, jtx.Result(s.token.Approve(s.env.As(seller), lender.Address, jtx.TokenID(0))))
	approved, err := s.token.GetApproved(nil, jtx.TokenID(0))
	require.NoError(t, err)
	s.Equal(lender.Address, approved)

	receipt, err := s.token.TransferFrom(s.env.As(lender), seller.Address, buyer.Address, jtx.TokenID(0))
	jtx.RequireTxSuccess(t, jtx.Result(receipt, err))
	jtx.RequireOwner(t, s.token, 0, buyer.Address)

	transfers, err := s.token.Transfers(receipt)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	s.Equal(seller.Address, transfers[0].From)
	s.Equal(buyer.Address, transfers[0].To)
}

func (s *DeedSuite) TestSnapshotRevert() {
	t := s.T()
	seller, buyer := s.env.Seller(), s.env.Buyer()

	id := s.env.Snapshot()
	jtx.RequireTxSuccess(t, jtx.Result(s.token.TransferFrom(s.env.As(seller), seller.Address, buyer.Address, jtx.TokenID(2))))
	jtx.RequireOwner(t, s.token, 2, buyer.Address)

	s.env.Revert(id)
	jtx.RequireOwner(t, s.token, 2, seller.Address)
}
