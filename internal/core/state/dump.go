package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Dump is the flat, codec-friendly form of a StateDB used for persistence.
// Balances are big-endian bytes so binary codecs need no big.Int support.
type Dump struct {
	Accounts []DumpAccount `codec:"accounts"`
}

// DumpAccount is one account of a Dump.
type DumpAccount struct {
	Address common.Address `codec:"address"`
	Balance []byte         `codec:"balance"`
	Nonce   uint64         `codec:"nonce"`
	Code    string         `codec:"code"`
	Storage []DumpSlot     `codec:"storage"`
	Blobs   []DumpBlob     `codec:"blobs"`
}

// DumpSlot is a storage slot entry.
type DumpSlot struct {
	Key   common.Hash `codec:"k"`
	Value common.Hash `codec:"v"`
}

// DumpBlob is a blob entry.
type DumpBlob struct {
	Key   common.Hash `codec:"k"`
	Value []byte      `codec:"v"`
}

// Dump flattens the state in address order.
func (s *StateDB) Dump() *Dump {
	d := &Dump{}
	for _, addr := range s.Addresses() {
		acc := s.accounts[addr]
		entry := DumpAccount{
			Address: addr,
			Balance: acc.Balance.Bytes(),
			Nonce:   acc.Nonce,
			Code:    acc.Code,
		}
		for _, k := range sortedKeys(acc.Storage) {
			entry.Storage = append(entry.Storage, DumpSlot{Key: k, Value: acc.Storage[k]})
		}
		for _, k := range sortedKeys(acc.Blobs) {
			entry.Blobs = append(entry.Blobs, DumpBlob{Key: k, Value: acc.Blobs[k]})
		}
		d.Accounts = append(d.Accounts, entry)
	}
	return d
}

// FromDump rebuilds a StateDB.
func FromDump(d *Dump) *StateDB {
	s := New()
	if d == nil {
		return s
	}
	for _, entry := range d.Accounts {
		acc := newAccount()
		acc.Balance = new(big.Int).SetBytes(entry.Balance)
		acc.Nonce = entry.Nonce
		acc.Code = entry.Code
		for _, slot := range entry.Storage {
			acc.Storage[slot.Key] = slot.Value
		}
		for _, blob := range entry.Blobs {
			acc.Blobs[blob.Key] = common.CopyBytes(blob.Value)
		}
		s.accounts[entry.Address] = acc
	}
	return s
}
