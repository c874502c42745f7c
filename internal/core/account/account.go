// Package account derives the deterministic devnet signers.
package account

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role names used by the escrow workflow. They are also the first four
// default signers, in this order.
const (
	Buyer     = "buyer"
	Seller    = "seller"
	Inspector = "inspector"
	Lender    = "lender"
	Deployer  = "deployer"
)

// SeedPrefix is prepended to a signer's name before hashing it into a key.
const SeedPrefix = "escrowd:"

// DefaultNames is the default signer set, in order.
var DefaultNames = []string{
	Buyer, Seller, Inspector, Lender, Deployer,
	"account5", "account6", "account7", "account8", "account9",
}

// Signer is a devnet-managed account with a keypair derived from its name.
type Signer struct {
	// Name is a human-readable identifier for the signer.
	Name string

	// PrivateKey is the secp256k1 key on go-ethereum's curve.
	PrivateKey *ecdsa.PrivateKey

	// Address is the Ethereum address of the public key.
	Address common.Address
}

// New creates a signer whose keypair is derived from the name. Using the
// same name always produces the same address.
func New(name string) *Signer {
	// keccak(SeedPrefix || name) reduced mod N; a zero scalar is
	// astronomically unlikely
	seed := crypto.Keccak256([]byte(SeedPrefix + name))
	priv := secp256k1.PrivKeyFromBytes(seed)

	key, err := crypto.ToECDSA(priv.Serialize())
	if err != nil {
		panic("failed to derive key for signer " + name + ": " + err.Error())
	}
	return &Signer{
		Name:       name,
		PrivateKey: key,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

// PrivateKeyHex returns the 0x-prefixed private key.
func (s *Signer) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(s.PrivateKey))
}

// SignHash signs a 32-byte digest. The signature is [R || S || V] with V
// the recovery id (0 or 1), as crypto.Ecrecover expects.
func (s *Signer) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash is required to be exactly 32 bytes (%d)", len(hash))
	}
	priv, _ := btcec.PrivKeyFromBytes(crypto.FromECDSA(s.PrivateKey))
	compact := btcecdsa.SignCompact(priv, hash, false)

	// compact is [27 + recid || R || S]
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, compact[1:])
	sig[crypto.RecoveryIDOffset] = compact[0] - 27
	return sig, nil
}

// SignText signs msg as eth_sign does: the digest covers the
// "\x19Ethereum Signed Message:\n" prefix and V is 27 or 28.
func (s *Signer) SignText(msg []byte) ([]byte, error) {
	sig, err := s.SignHash(accounts.TextHash(msg))
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *Signer) String() string {
	return fmt.Sprintf("%s(%s)", s.Name, s.Address.Hex())
}

// Set is an ordered collection of signers addressable by name and address.
type Set struct {
	ordered []*Signer
	byName  map[string]*Signer
	byAddr  map[common.Address]*Signer
}

// NewSet derives a signer for each name. Duplicate names are ignored.
func NewSet(names ...string) *Set {
	s := &Set{
		byName: make(map[string]*Signer),
		byAddr: make(map[common.Address]*Signer),
	}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Defaults returns the set derived from DefaultNames.
func Defaults() *Set {
	return NewSet(DefaultNames...)
}

// Add derives and stores the named signer, returning the existing one if
// already present.
func (s *Set) Add(name string) *Signer {
	name = strings.TrimSpace(name)
	if existing, ok := s.byName[name]; ok {
		return existing
	}
	signer := New(name)
	s.ordered = append(s.ordered, signer)
	s.byName[name] = signer
	s.byAddr[signer.Address] = signer
	return signer
}

// Get returns the named signer.
func (s *Set) Get(name string) (*Signer, bool) {
	signer, ok := s.byName[name]
	return signer, ok
}

// MustGet returns the named signer or panics.
func (s *Set) MustGet(name string) *Signer {
	signer, ok := s.byName[name]
	if !ok {
		panic("unknown signer: " + name)
	}
	return signer
}

// ByAddress returns the signer owning addr.
func (s *Set) ByAddress(addr common.Address) (*Signer, bool) {
	signer, ok := s.byAddr[addr]
	return signer, ok
}

// Has reports whether addr belongs to the set.
func (s *Set) Has(addr common.Address) bool {
	_, ok := s.byAddr[addr]
	return ok
}

// All returns the signers in insertion order.
func (s *Set) All() []*Signer {
	out := make([]*Signer, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Addresses returns the signer addresses in insertion order.
func (s *Set) Addresses() []common.Address {
	out := make([]common.Address, len(s.ordered))
	for i, signer := range s.ordered {
		out[i] = signer.Address
	}
	return out
}

// Len returns the number of signers.
func (s *Set) Len() int {
	return len(s.ordered)
}
