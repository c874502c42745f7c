// Package testing provides test infrastructure for driving the RealEstate
// and Escrow contracts through their lifecycle.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: a fresh devnet per test, reachable in-process or over JSON-RPC
//   - Account: the named devnet signers (buyer, seller, inspector, lender)
//   - Amount helpers: Ether, Gwei and Wei as *big.Int
//   - Assertions: balance, ownership and revert checks
//
// # Basic Usage
//
//	func TestSale(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//	    token, sale := env.DeployMarket()
//
//	    _, err := sale.List(env.As(env.Seller()), testing.TokenID(0),
//	        testing.Ether(10), testing.Ether(5), env.Buyer().Address)
//	    require.NoError(t, err)
//
//	    testing.RequireOwner(t, token, 0, sale.Address())
//	}
//
// # Backends
//
// NewTestEnv binds the contracts straight to the chain. NewRPCTestEnv serves
// the same chain over HTTP and binds through the JSON-RPC client, so every
// call and transaction crosses the wire the way an external script would:
//
//	env := testing.NewRPCTestEnv(t)
//	env.RPC().Snapshot(ctx)
//
// Both share the API below, so a suite can run against either.
//
// # Accounts
//
// Accounts are derived from their names. The first four default signers
// play the sale roles:
//
//	env.Buyer()      // "buyer"
//	env.Seller()     // "seller"
//	env.Inspector()  // "inspector"
//	env.Lender()     // "lender"
//	env.Account("account5")
//
// # Assertions
//
//	testing.RequireBalance(t, env, env.Buyer(), testing.Ether(9995))
//	testing.RequireOwner(t, token, 0, env.Buyer().Address)
//	testing.RequireRevert(t, err, escrow.ReasonOnlyBuyer)
//
// # Clock Control
//
// The chain runs on a chain.ManualClock:
//
//	env.AdvanceTime(24 * time.Hour)
//	env.Now()
package testing
