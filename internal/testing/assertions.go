package testing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
)

// RequireBalance asserts that an account has the expected balance in wei.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected *big.Int) {
	t.Helper()
	actual := env.Balance(acc)
	require.Zero(t, expected.Cmp(actual),
		"Account %s balance mismatch: expected %s wei, got %s wei",
		acc.Name, expected, actual)
}

// RequireBalanceEther asserts that an account has the expected balance in
// whole ether.
func RequireBalanceEther(t *testing.T, env *TestEnv, acc *Account, expectedEther int64) {
	t.Helper()
	RequireBalance(t, env, acc, Ether(expectedEther))
}

// RequireBalanceChange asserts that an account's balance moved by delta
// since before was read.
func RequireBalanceChange(t *testing.T, env *TestEnv, acc *Account, before, delta *big.Int) {
	t.Helper()
	RequireBalance(t, env, acc, Sum(before, delta))
}

// RequireTxSuccess asserts that a transaction was mined and succeeded.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.NoError(t, result.Err, "Expected transaction success")
	require.True(t, result.Success(), "Expected a successful receipt")
}

// RequireRevert asserts that err is a contract revert with the given reason.
func RequireRevert(t *testing.T, err error, reason string) {
	t.Helper()
	RequireTxRevert(t, Result(nil, err), reason)
}

// RequireTxRevert asserts that a transaction reverted with the given reason.
func RequireTxRevert(t *testing.T, result TxResult, reason string) {
	t.Helper()
	require.Error(t, result.Err, "Expected revert %q, but transaction succeeded", reason)
	require.True(t, result.Reverted(), "Expected a revert, got %v", result.Err)
	require.Equal(t, reason, result.Reason())
}

// RequireOwner asserts the holder of a token.
func RequireOwner(t *testing.T, token *realestate.RealEstate, id int64, expected common.Address) {
	t.Helper()
	owner, err := token.OwnerOf(nil, TokenID(id))
	require.NoError(t, err)
	require.Equal(t, expected, owner, "Token %d owner mismatch", id)
}

// RequireEscrowBalance asserts the ether held by an escrow.
func RequireEscrowBalance(t *testing.T, sale *escrow.Escrow, expected *big.Int) {
	t.Helper()
	actual, err := sale.GetBalance(nil)
	require.NoError(t, err)
	require.Zero(t, expected.Cmp(actual),
		"Escrow balance mismatch: expected %s wei, got %s wei", expected, actual)
}

// RequireListed asserts whether a token is listed.
func RequireListed(t *testing.T, sale *escrow.Escrow, id int64, expected bool) {
	t.Helper()
	listed, err := sale.IsListed(nil, TokenID(id))
	require.NoError(t, err)
	require.Equal(t, expected, listed, "Token %d listed mismatch", id)
}

// RequireApproval asserts a party's approval of a sale.
func RequireApproval(t *testing.T, sale *escrow.Escrow, id int64, acc *Account, expected bool) {
	t.Helper()
	approved, err := sale.Approval(nil, TokenID(id), acc.Address)
	require.NoError(t, err)
	require.Equal(t, expected, approved, "Approval of %s for token %d mismatch", acc.Name, id)
}
