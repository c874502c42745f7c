// Package state holds the devnet world state: balances, nonces, contract
// kinds, storage slots and string blobs, keyed by address.
package state

import (
	"bytes"
	"errors"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
var ErrInsufficientBalance = errors.New("insufficient funds for transfer")

// Account is the state object stored per address.
type Account struct {
	Balance *big.Int
	Nonce   uint64
	// Code is the contract kind; empty for externally owned accounts.
	Code    string
	Storage map[common.Hash]common.Hash
	Blobs   map[common.Hash][]byte
}

func newAccount() *Account {
	return &Account{
		Balance: new(big.Int),
		Storage: make(map[common.Hash]common.Hash),
		Blobs:   make(map[common.Hash][]byte),
	}
}

func (a *Account) copy() *Account {
	cp := &Account{
		Balance: new(big.Int).Set(a.Balance),
		Nonce:   a.Nonce,
		Code:    a.Code,
		Storage: make(map[common.Hash]common.Hash, len(a.Storage)),
		Blobs:   make(map[common.Hash][]byte, len(a.Blobs)),
	}
	for k, v := range a.Storage {
		cp.Storage[k] = v
	}
	for k, v := range a.Blobs {
		cp.Blobs[k] = common.CopyBytes(v)
	}
	return cp
}

// StateDB is an in-memory world state. It is not safe for concurrent use;
// the chain serializes access and executes transactions on copies.
type StateDB struct {
	accounts map[common.Address]*Account
}

// New returns an empty state.
func New() *StateDB {
	return &StateDB{accounts: make(map[common.Address]*Account)}
}

// Copy returns a deep copy of the state.
func (s *StateDB) Copy() *StateDB {
	cp := &StateDB{accounts: make(map[common.Address]*Account, len(s.accounts))}
	for addr, acc := range s.accounts {
		cp.accounts[addr] = acc.copy()
	}
	return cp
}

func (s *StateDB) getOrNew(addr common.Address) *Account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = newAccount()
		s.accounts[addr] = acc
	}
	return acc
}

// Exist reports whether addr has been touched.
func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

// GetBalance returns a copy of the balance of addr.
func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if acc, ok := s.accounts[addr]; ok {
		return new(big.Int).Set(acc.Balance)
	}
	return new(big.Int)
}

// SetBalance overwrites the balance of addr.
func (s *StateDB) SetBalance(addr common.Address, amount *big.Int) {
	s.getOrNew(addr).Balance = new(big.Int).Set(amount)
}

// AddBalance credits addr.
func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	acc := s.getOrNew(addr)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
}

// SubBalance debits addr, failing when the balance is too low.
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) error {
	acc := s.getOrNew(addr)
	if acc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	return nil
}

// Transfer moves amount from one account to another.
func (s *StateDB) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if err := s.SubBalance(from, amount); err != nil {
		return err
	}
	s.AddBalance(to, amount)
	return nil
}

// GetNonce returns the nonce of addr.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Nonce
	}
	return 0
}

// SetNonce overwrites the nonce of addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	s.getOrNew(addr).Nonce = nonce
}

// GetCode returns the contract kind at addr, or "" for an EOA.
func (s *StateDB) GetCode(addr common.Address) string {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Code
	}
	return ""
}

// SetCode marks addr as a contract of the given kind.
func (s *StateDB) SetCode(addr common.Address, kind string) {
	s.getOrNew(addr).Code = kind
}

// GetState reads a storage slot. Unset slots read as zero.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	if acc, ok := s.accounts[addr]; ok {
		return acc.Storage[slot]
	}
	return common.Hash{}
}

// SetState writes a storage slot. Writing zero deletes the slot.
func (s *StateDB) SetState(addr common.Address, slot, value common.Hash) {
	acc := s.getOrNew(addr)
	if value == (common.Hash{}) {
		delete(acc.Storage, slot)
		return
	}
	acc.Storage[slot] = value
}

// GetBlob reads a variable-length value.
func (s *StateDB) GetBlob(addr common.Address, key common.Hash) []byte {
	if acc, ok := s.accounts[addr]; ok {
		return common.CopyBytes(acc.Blobs[key])
	}
	return nil
}

// SetBlob writes a variable-length value. An empty value deletes the key.
func (s *StateDB) SetBlob(addr common.Address, key common.Hash, value []byte) {
	acc := s.getOrNew(addr)
	if len(value) == 0 {
		delete(acc.Blobs, key)
		return
	}
	acc.Blobs[key] = common.CopyBytes(value)
}

// Contracts returns every contract address and its kind.
func (s *StateDB) Contracts() map[common.Address]string {
	out := make(map[common.Address]string)
	for addr, acc := range s.accounts {
		if acc.Code != "" {
			out[addr] = acc.Code
		}
	}
	return out
}

// Addresses returns all touched addresses in byte order.
func (s *StateDB) Addresses() []common.Address {
	out := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

type slotRLP struct {
	Key   common.Hash
	Value common.Hash
}

type blobRLP struct {
	Key   common.Hash
	Value []byte
}

type accountRLP struct {
	Address common.Address
	Balance *big.Int
	Nonce   uint64
	Code    string
	Storage []slotRLP
	Blobs   []blobRLP
}

// Root returns a commitment to the whole state: the keccak-256 of the RLP of
// every account in address order with its slots and blobs in key order.
func (s *StateDB) Root() common.Hash {
	addrs := s.Addresses()
	list := make([]accountRLP, 0, len(addrs))
	for _, addr := range addrs {
		acc := s.accounts[addr]
		entry := accountRLP{
			Address: addr,
			Balance: acc.Balance,
			Nonce:   acc.Nonce,
			Code:    acc.Code,
		}
		for _, k := range sortedKeys(acc.Storage) {
			entry.Storage = append(entry.Storage, slotRLP{Key: k, Value: acc.Storage[k]})
		}
		for _, k := range sortedKeys(acc.Blobs) {
			entry.Blobs = append(entry.Blobs, blobRLP{Key: k, Value: acc.Blobs[k]})
		}
		list = append(list, entry)
	}
	enc, err := rlp.EncodeToBytes(list)
	if err != nil {
		panic("can't encode state: " + err.Error())
	}
	return crypto.Keccak256Hash(enc)
}

func sortedKeys[V any](m map[common.Hash]V) []common.Hash {
	keys := make([]common.Hash, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// Reset replaces the contents of s with those of other. other must not be
// used afterwards.
func (s *StateDB) Reset(other *StateDB) {
	s.accounts = other.accounts
}
