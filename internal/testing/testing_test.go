package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/vm"
)

func TestNewAccount(t *testing.T) {
	// Same name should produce same account
	alice1 := NewAccount("alice")
	alice2 := NewAccount("alice")
	assert.Equal(t, alice1.Address, alice2.Address)

	// Different name should produce different account
	bob := NewAccount("bob")
	assert.NotEqual(t, alice1.Address, bob.Address)

	assert.Equal(t, account.New("alice").Address, alice1.Address)
	assert.Equal(t, alice1.Address.Hex(), alice1.Human())
	assert.Contains(t, alice1.String(), "alice(")
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, "10000000000000000000", Ether(10).String())
	assert.Equal(t, "1000000000", Gwei(1).String())
	assert.Equal(t, "7", Wei(7).String())
	assert.Equal(t, "15000000000000000000", Sum(Ether(10), Ether(5)).String())
	assert.Equal(t, "-5000000000000000000", Diff(Ether(5), Ether(10)).String())
}

func TestTxResult(t *testing.T) {
	r := Result(nil, vm.Revert("Only buyer can call this method"))
	assert.False(t, r.Success())
	assert.True(t, r.Reverted())
	assert.Equal(t, "Only buyer can call this method", r.Reason())

	r = Result(nil, errors.New("connection refused"))
	assert.False(t, r.Reverted())
	assert.Empty(t, r.Reason())
}

func TestEnvRoles(t *testing.T) {
	env := NewTestEnv(t)
	roles := env.Roles()
	assert.Equal(t, env.Buyer().Address, roles.Buyer)
	assert.Equal(t, env.Seller().Address, roles.Seller)
	assert.Equal(t, env.Inspector().Address, roles.Inspector)
	assert.Equal(t, env.Lender().Address, roles.Lender)
	assert.Empty(t, env.URL())
	assert.Nil(t, env.RPC())

	RequireBalanceEther(t, env, env.Buyer(), 10000)
}

func TestEnvClock(t *testing.T) {
	env := NewTestEnv(t)
	start := env.Now()
	env.AdvanceTime(time.Hour)
	assert.Equal(t, start.Add(time.Hour), env.Now())
}

func TestEnvSnapshot(t *testing.T) {
	env := NewTestEnv(t)
	id := env.Snapshot()
	token := env.Deploy()
	RequireOwner(t, token, 0, env.Seller().Address)

	env.Revert(id)
	_, err := token.OwnerOf(nil, TokenID(0))
	require.Error(t, err)
}

func TestRPCEnvDeploy(t *testing.T) {
	env := NewRPCTestEnv(t)
	require.NotNil(t, env.RPC())
	require.NotEmpty(t, env.URL())

	token, sale := env.DeployMarket()
	require.NotNil(t, env.Deployment())
	assert.Len(t, env.Deployment().Tokens, 3)

	for id := int64(0); id < 3; id++ {
		RequireOwner(t, token, id, env.Seller().Address)
	}
	RequireEscrowBalance(t, sale, Wei(0))

	contracts, err := env.RPC().Contracts(env.Context())
	require.NoError(t, err)
	assert.Len(t, contracts, 2)
}
