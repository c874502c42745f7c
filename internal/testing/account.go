package testing

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goEscrow/internal/core/account"
)

// Account represents a devnet signer in a test.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Address is the account's Ethereum address.
	Address common.Address

	signer *account.Signer
}

// NewAccount returns the account derived from name. Using the same name
// always produces the same account. Only names in the chain's signer set
// can send transactions.
func NewAccount(name string) *Account {
	return fromSigner(account.New(name))
}

func fromSigner(s *account.Signer) *Account {
	return &Account{Name: s.Name, Address: s.Address, signer: s}
}

// Signer returns the keypair behind the account.
func (a *Account) Signer() *account.Signer {
	return a.signer
}

// Human returns the checksummed address.
func (a *Account) Human() string {
	return a.Address.Hex()
}

// String returns a string representation of the account.
func (a *Account) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.Address.Hex())
}
