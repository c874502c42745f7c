package deploy

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
	"github.com/LeJamon/goEscrow/internal/core/chain"
)

func newBackend(t *testing.T) (*bind.ChainBackend, Roles) {
	t.Helper()
	cfg := chain.DefaultConfig()
	cfg.Clock = chain.NewManualClock()
	c, err := chain.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	roles, err := RolesFromAccounts(cfg.Signers.Addresses())
	require.NoError(t, err)
	return bind.NewChainBackend(c), roles
}

const validMetadata = `{
  "name": "Luxury NYC Penthouse",
  "description": "Luxury Penthouse located in the heart of NYC",
  "image": "https://ipfs.io/ipfs/QmQUozrHLAusXDxrvsESJ3PYB3rUeUuBAvVWw6nop2uu7c/1.png",
  "id": "1",
  "attributes": [
    {"trait_type": "Purchase Price", "value": 20},
    {"trait_type": "Type of Residence", "value": "Condo"}
  ]
}`

func TestTokenURI(t *testing.T) {
	assert.Equal(t, DefaultBaseURL+"/1.json", TokenURI(DefaultBaseURL, 0))
	assert.Equal(t, "https://example.org/meta/3.json", TokenURI("https://example.org/meta/", 2))
}

func TestRolesFromAccounts(t *testing.T) {
	_, err := RolesFromAccounts([]common.Address{{1}, {2}})
	assert.ErrorIs(t, err, ErrNotEnoughSigners)

	roles, err := RolesFromAccounts([]common.Address{{1}, {2}, {3}, {4}, {5}})
	require.NoError(t, err)
	assert.Equal(t, Roles{Buyer: common.Address{1}, Seller: common.Address{2}, Inspector: common.Address{3}, Lender: common.Address{4}}, roles)
}

func TestRunMintsThreeDeeds(t *testing.T) {
	backend, roles := newBackend(t)
	ctx := context.Background()

	d, err := Run(ctx, backend, DefaultOptions(roles))
	require.NoError(t, err)

	assert.Equal(t, ModuleName, d.Module)
	assert.Empty(t, d.Escrow)
	require.Len(t, d.Tokens, 3)
	assert.Len(t, d.TxHashes, 4)

	token, err := realestate.New(ctx, common.HexToAddress(d.RealEstate), backend)
	require.NoError(t, err)

	owner, err := token.Owner(nil)
	require.NoError(t, err)
	assert.Equal(t, roles.Seller, owner)

	// The first account deploys, the seller owns and mints.
	deployed, err := backend.TransactionReceipt(ctx, common.HexToHash(d.TxHashes[0]))
	require.NoError(t, err)
	assert.Equal(t, roles.Buyer, deployed.From)
	assert.Equal(t, roles.Buyer.Hex(), d.Signers.Deployer)
	minted, err := backend.TransactionReceipt(ctx, common.HexToHash(d.Tokens[0].TxHash))
	require.NoError(t, err)
	assert.Equal(t, roles.Seller, minted.From)

	for i, minted := range d.Tokens {
		id := big.NewInt(int64(i))
		assert.Equal(t, uint64(i), minted.ID)

		uri, err := token.TokenURI(nil, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%s/%d.json", DefaultBaseURL, i+1), uri)
		assert.Equal(t, uri, minted.URI)

		holder, err := token.OwnerOf(nil, id)
		require.NoError(t, err)
		assert.Equal(t, roles.Seller, holder)
	}

	supply, err := token.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), supply.Int64())
}

func TestRunWithEscrow(t *testing.T) {
	backend, roles := newBackend(t)
	ctx := context.Background()

	opts := DefaultOptions(roles)
	opts.WithEscrow = true
	d, err := Run(ctx, backend, opts)
	require.NoError(t, err)
	require.NotEmpty(t, d.Escrow)

	e, err := escrow.New(ctx, common.HexToAddress(d.Escrow), backend)
	require.NoError(t, err)
	parties, err := e.Parties(nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(d.RealEstate), parties.NFT)
	assert.Equal(t, roles.Seller, parties.Seller)
	assert.Equal(t, roles.Inspector, parties.Inspector)
	assert.Equal(t, roles.Lender, parties.Lender)
}

func TestRunRejectsZeroMintCount(t *testing.T) {
	backend, roles := newBackend(t)
	opts := DefaultOptions(roles)
	opts.MintCount = 0
	_, err := Run(context.Background(), backend, opts)
	assert.ErrorIs(t, err, ErrMintCount)
}

func metadataServer(t *testing.T, docs map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunVerifiesMetadata(t *testing.T) {
	srv := metadataServer(t, map[string]string{
		"/deeds/1.json": validMetadata,
		"/deeds/2.json": validMetadata,
		"/deeds/3.json": validMetadata,
	})
	backend, roles := newBackend(t)

	opts := DefaultOptions(roles)
	opts.BaseURL = srv.URL + "/deeds"
	opts.Verifier = NewMetadataVerifier(srv.Client())
	d, err := Run(context.Background(), backend, opts)
	require.NoError(t, err)

	require.Len(t, d.Tokens, 3)
	require.NotNil(t, d.Tokens[0].Metadata)
	assert.Equal(t, "Luxury NYC Penthouse", d.Tokens[0].Metadata.Name)
	assert.Len(t, d.Tokens[0].Metadata.Attributes, 2)
}

func TestRunStopsOnInvalidMetadata(t *testing.T) {
	srv := metadataServer(t, map[string]string{
		"/deeds/1.json": validMetadata,
		"/deeds/2.json": `{"name": "No image", "attributes": []}`,
	})
	backend, roles := newBackend(t)

	opts := DefaultOptions(roles)
	opts.BaseURL = srv.URL + "/deeds"
	opts.Verifier = NewMetadataVerifier(srv.Client())
	d, err := Run(context.Background(), backend, opts)
	require.ErrorIs(t, err, ErrMetadata)
	assert.Len(t, d.Tokens, 1, "the first deed is minted before the failure")
}

func TestVerifyMissingDocument(t *testing.T) {
	srv := metadataServer(t, nil)
	_, err := NewMetadataVerifier(srv.Client()).Verify(context.Background(), srv.URL+"/deeds/1.json")
	require.ErrorIs(t, err, ErrMetadata)
	assert.Contains(t, err.Error(), "404")
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUnlockTime, p.UnlockTime)
	assert.Equal(t, "1000000000", p.LockedAmount.String())

	p, err = ParseParams(map[string]interface{}{"unlockTime": "1700000000", "lockedAmount": 42})
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), p.UnlockTime)
	assert.Equal(t, "42", p.LockedAmount.String())

	_, err = ParseParams(map[string]interface{}{"lockedAmount": "-1"})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"unlockTime": "soon"})
	assert.Error(t, err)

	_, err = ParseParams(map[string]interface{}{"value": 1})
	assert.ErrorIs(t, err, ErrUnknownParameter)
}

func TestDeploymentYAML(t *testing.T) {
	backend, roles := newBackend(t)
	opts := DefaultOptions(roles)
	opts.ChainID = chain.DefaultChainID
	d, err := Run(context.Background(), backend, opts)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, d.WriteYAML(&sb))
	assert.Contains(t, sb.String(), "module: RealEstateModule")
	assert.Contains(t, sb.String(), "unlock_time: 1893456000")

	path := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, d.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(d, loaded); diff != "" {
		t.Errorf("deployment mismatch (-want +got):\n%s", diff)
	}
}
