// Package deploy runs the RealEstate deployment module: it deploys the
// RealEstate contract from the first account with the seller as owner, and
// the seller mints the property deeds whose metadata lives under a fixed
// IPFS base URL. It can optionally deploy an
// Escrow over the new collection and verify each deed's metadata before
// minting.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/contracts/escrow"
	"github.com/LeJamon/goEscrow/internal/contracts/realestate"
)

const (
	// ModuleName names the deployment module.
	ModuleName = "RealEstateModule"

	// DefaultBaseURL is the IPFS directory holding the deeds' metadata.
	DefaultBaseURL = "https://ipfs.io/ipfs/QmQVcpsjrA6cr1iJjZAodYwmPekYgbnXGo4DFubJiLc2EB"

	// DefaultMintCount is the number of deeds minted.
	DefaultMintCount = 3
)

var (
	ErrNotEnoughSigners = errors.New("deployment needs buyer, seller, inspector and lender signers")
	ErrUnknownParameter = errors.New("unknown module parameter")
	ErrMetadata         = errors.New("invalid token metadata")
	ErrMintCount        = errors.New("mint count must be positive")
)

// Roles are the four participants of a sale.
type Roles struct {
	Buyer     common.Address
	Seller    common.Address
	Inspector common.Address
	Lender    common.Address
}

// RolesFromAccounts assigns buyer, seller, inspector and lender to the first
// four accounts, in that order. The buyer's account, being the first, is also
// the one contracts are deployed from.
func RolesFromAccounts(accounts []common.Address) (Roles, error) {
	if len(accounts) < 4 {
		return Roles{}, fmt.Errorf("%w: have %d accounts", ErrNotEnoughSigners, len(accounts))
	}
	return Roles{
		Buyer:     accounts[0],
		Seller:    accounts[1],
		Inspector: accounts[2],
		Lender:    accounts[3],
	}, nil
}

// Options configure a module run.
type Options struct {
	Roles     Roles
	ChainID   uint64
	BaseURL   string
	MintCount int
	Params    Params

	// WithEscrow also deploys Escrow(realEstate, seller, inspector, lender).
	WithEscrow bool

	// Verifier, when set, validates each token's metadata before it is
	// minted.
	Verifier *MetadataVerifier

	Logger log.Logger
}

// DefaultOptions returns options for the standard three-deed deployment.
func DefaultOptions(roles Roles) Options {
	return Options{
		Roles:     roles,
		BaseURL:   DefaultBaseURL,
		MintCount: DefaultMintCount,
		Params:    DefaultParams(),
	}
}

// TokenURI returns the metadata URL of the index-th deed. Deeds are numbered
// from 1 under the base URL.
func TokenURI(baseURL string, index int) string {
	return fmt.Sprintf("%s/%d.json", strings.TrimRight(baseURL, "/"), index+1)
}

// Run executes the module against backend.
func Run(ctx context.Context, backend bind.Backend, opts Options) (*Deployment, error) {
	if opts.MintCount <= 0 {
		return nil, ErrMintCount
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Params.LockedAmount == nil {
		opts.Params = DefaultParams()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New("module", ModuleName)
	}
	roles := opts.Roles
	asDeployer := &bind.TransactOpts{From: roles.Buyer, Context: ctx}
	asSeller := &bind.TransactOpts{From: roles.Seller, Context: ctx}

	d := &Deployment{
		Module:  ModuleName,
		ChainID: opts.ChainID,
		Parameters: ParamsRecord{
			UnlockTime:   opts.Params.UnlockTime,
			LockedAmount: opts.Params.LockedAmount.String(),
		},
		Signers: SignersRecord{
			Deployer:  roles.Buyer.Hex(),
			Buyer:     roles.Buyer.Hex(),
			Seller:    roles.Seller.Hex(),
			Inspector: roles.Inspector.Hex(),
			Lender:    roles.Lender.Hex(),
		},
	}

	addr, receipt, token, err := realestate.Deploy(asDeployer, backend, roles.Seller)
	if err != nil {
		return nil, fmt.Errorf("deploying %s: %w", realestate.Kind, err)
	}
	d.RealEstate = addr.Hex()
	d.TxHashes = append(d.TxHashes, receipt.TxHash.Hex())
	logger.Info("Deployed contract", "kind", realestate.Kind, "address", addr, "deployer", roles.Buyer, "owner", roles.Seller)

	for i := 0; i < opts.MintCount; i++ {
		uri := TokenURI(opts.BaseURL, i)
		var md *Metadata
		if opts.Verifier != nil {
			if md, err = opts.Verifier.Verify(ctx, uri); err != nil {
				return d, err
			}
		}
		receipt, err := token.SafeMint(asSeller, roles.Seller, uri)
		if err != nil {
			return d, fmt.Errorf("minting %s: %w", uri, err)
		}
		id, err := token.MintedID(receipt)
		if err != nil {
			return d, fmt.Errorf("minting %s: %w", uri, err)
		}
		d.Tokens = append(d.Tokens, Token{
			ID:       id.Uint64(),
			URI:      uri,
			Owner:    roles.Seller.Hex(),
			TxHash:   receipt.TxHash.Hex(),
			Metadata: md,
		})
		d.TxHashes = append(d.TxHashes, receipt.TxHash.Hex())
		logger.Info("Minted property", "id", id, "uri", uri)
	}

	if opts.WithEscrow {
		addr, receipt, _, err := escrow.Deploy(asDeployer, backend, token.Address(), roles.Seller, roles.Inspector, roles.Lender)
		if err != nil {
			return d, fmt.Errorf("deploying %s: %w", escrow.Kind, err)
		}
		d.Escrow = addr.Hex()
		d.TxHashes = append(d.TxHashes, receipt.TxHash.Hex())
		logger.Info("Deployed contract", "kind", escrow.Kind, "address", addr)
	}
	return d, nil
}
