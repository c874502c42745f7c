package testing

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/deploy"
	"github.com/LeJamon/goEscrow/internal/rpc"
	"github.com/LeJamon/goEscrow/internal/rpc/client"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// TestEnv manages an isolated devnet for one test.
// It provides a simplified interface for deploying the contracts, sending
// transactions as the sale parties, and reading balances and ownership.
type TestEnv struct {
	t       *testing.T
	ctx     context.Context
	chain   *chain.Chain
	clock   *chain.ManualClock
	backend bind.Backend
	signers *account.Set

	// set by NewRPCTestEnv
	server *httptest.Server
	client *client.Client

	deployment *deploy.Deployment
}

// NewTestEnv creates a devnet whose contracts are bound in-process.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	env := newEnv(t)
	env.backend = bind.NewChainBackend(env.chain)
	return env
}

// NewRPCTestEnv creates a devnet served over JSON-RPC on a local HTTP
// server. All contract traffic goes through the RPC client.
func NewRPCTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	env := newEnv(t)

	srv := rpc.NewServer(&rpc_types.ServiceContainer{Chain: env.chain, Version: "test"}, rpc.DefaultConfig())
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		env.server.Close()
	})

	c, err := client.Dial(env.ctx, env.server.URL)
	if err != nil {
		t.Fatalf("Failed to dial test node: %v", err)
	}
	t.Cleanup(c.Close)
	env.client = c
	env.backend = c
	return env
}

func newEnv(t *testing.T) *TestEnv {
	cfg := chain.DefaultConfig()
	clock := chain.NewManualClock()
	cfg.Clock = clock
	c, err := chain.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create chain: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return &TestEnv{
		t:       t,
		ctx:     context.Background(),
		chain:   c,
		clock:   clock,
		signers: cfg.Signers,
	}
}

// Chain returns the underlying chain.
func (e *TestEnv) Chain() *chain.Chain {
	return e.chain
}

// Backend returns the backend the bindings use.
func (e *TestEnv) Backend() bind.Backend {
	return e.backend
}

// RPC returns the JSON-RPC client, or nil for an in-process environment.
func (e *TestEnv) RPC() *client.Client {
	return e.client
}

// URL returns the JSON-RPC endpoint, or "" for an in-process environment.
func (e *TestEnv) URL() string {
	if e.server == nil {
		return ""
	}
	return e.server.URL
}

// Context returns the context used for calls and transactions.
func (e *TestEnv) Context() context.Context {
	return e.ctx
}

// Account returns the named signer. The test fails if the chain does not
// hold it.
func (e *TestEnv) Account(name string) *Account {
	e.t.Helper()
	s, ok := e.signers.Get(name)
	if !ok {
		e.t.Fatalf("Account %s is not a devnet signer", name)
	}
	return fromSigner(s)
}

// Buyer returns the buyer account.
func (e *TestEnv) Buyer() *Account { return e.Account(account.Buyer) }

// Seller returns the seller account.
func (e *TestEnv) Seller() *Account { return e.Account(account.Seller) }

// Inspector returns the inspector account.
func (e *TestEnv) Inspector() *Account { return e.Account(account.Inspector) }

// Lender returns the lender account.
func (e *TestEnv) Lender() *Account { return e.Account(account.Lender) }

// Roles returns the four sale parties.
func (e *TestEnv) Roles() deploy.Roles {
	return deploy.Roles{
		Buyer:     e.Buyer().Address,
		Seller:    e.Seller().Address,
		Inspector: e.Inspector().Address,
		Lender:    e.Lender().Address,
	}
}

// As returns transaction options sending from acc.
func (e *TestEnv) As(acc *Account) *bind.TransactOpts {
	return &bind.TransactOpts{From: acc.Address, Context: e.ctx}
}

// AsWithValue returns transaction options sending value wei from acc.
func (e *TestEnv) AsWithValue(acc *Account, value *big.Int) *bind.TransactOpts {
	opts := e.As(acc)
	opts.Value = value
	return opts
}

// Balance returns the balance of acc in wei, read through the backend.
func (e *TestEnv) Balance(acc *Account) *big.Int {
	e.t.Helper()
	return e.BalanceAt(acc.Address)
}

// BalanceAt returns the balance of addr in wei.
func (e *TestEnv) BalanceAt(addr common.Address) *big.Int {
	e.t.Helper()
	bal, err := e.backend.BalanceAt(e.ctx, addr)
	if err != nil {
		e.t.Fatalf("Failed to read balance of %s: %v", addr.Hex(), err)
	}
	return bal
}

// Deploy runs the deployment module: RealEstate owned by the seller with
// three deeds minted to the seller.
func (e *TestEnv) Deploy() *realestate.RealEstate {
	e.t.Helper()
	d, err := deploy.Run(e.ctx, e.backend, deploy.DefaultOptions(e.Roles()))
	if err != nil {
		e.t.Fatalf("Deployment failed: %v", err)
	}
	e.deployment = d
	token, err := realestate.New(e.ctx, common.HexToAddress(d.RealEstate), e.backend)
	if err != nil {
		e.t.Fatalf("Failed to bind RealEstate: %v", err)
	}
	return token
}

// Deployment returns the record of the last Deploy call.
func (e *TestEnv) Deployment() *deploy.Deployment {
	return e.deployment
}

// DeployEscrow deploys an Escrow over token with the default parties.
func (e *TestEnv) DeployEscrow(token *realestate.RealEstate) *escrow.Escrow {
	e.t.Helper()
	_, _, sale, err := escrow.Deploy(e.As(e.Seller()), e.backend, token.Address(),
		e.Seller().Address, e.Inspector().Address, e.Lender().Address)
	if err != nil {
		e.t.Fatalf("Failed to deploy Escrow: %v", err)
	}
	return sale
}

// DeployMarket deploys the deeds and an Escrow over them.
func (e *TestEnv) DeployMarket() (*realestate.RealEstate, *escrow.Escrow) {
	e.t.Helper()
	token := e.Deploy()
	return token, e.DeployEscrow(token)
}

// Now returns the chain clock.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the chain clock forward. The next block carries the new
// time.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// Snapshot records the chain state.
func (e *TestEnv) Snapshot() uint64 {
	return e.chain.Snapshot()
}

// Revert restores the state recorded by Snapshot.
func (e *TestEnv) Revert(id uint64) {
	e.t.Helper()
	ok, err := e.chain.Revert(e.ctx, id)
	if err != nil || !ok {
		e.t.Fatalf("Failed to revert to snapshot %d: ok=%v err=%v", id, ok, err)
	}
}
