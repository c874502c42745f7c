package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Transaction is a devnet transaction. Transactions are sent on behalf of
// devnet-managed signers and are never signed.
//
// A nil To marks a deployment: Contract names the contract kind to create
// and Data carries the ABI-encoded constructor arguments.
type Transaction struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	Nonce    uint64
	Contract string
}

// Hash returns the keccak-256 hash of the RLP encoding of the transaction.
func (tx *Transaction) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(tx.rlpFields())
	if err != nil {
		panic("can't encode transaction: " + err.Error())
	}
	return crypto.Keccak256Hash(enc)
}

// IsDeployment reports whether the transaction creates a contract.
func (tx *Transaction) IsDeployment() bool {
	return tx.To == nil
}

// ValueOrZero returns the transferred value, never nil.
func (tx *Transaction) ValueOrZero() *big.Int {
	if tx.Value == nil {
		return new(big.Int)
	}
	return tx.Value
}

// MarshalBinary returns the RLP encoding used for hashing and persistence.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return rlp.EncodeToBytes(tx.rlpFields())
}

// UnmarshalBinary decodes the output of MarshalBinary.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	var f txRLP
	if err := rlp.DecodeBytes(b, &f); err != nil {
		return err
	}
	*tx = Transaction{
		From:     f.From,
		Value:    f.Value,
		Data:     f.Data,
		Nonce:    f.Nonce,
		Contract: f.Contract,
	}
	if len(f.To) == common.AddressLength {
		to := common.BytesToAddress(f.To)
		tx.To = &to
	}
	return nil
}

type txRLP struct {
	From     common.Address
	To       []byte
	Value    *big.Int
	Data     []byte
	Nonce    uint64
	Contract string
}

func (tx *Transaction) rlpFields() *txRLP {
	f := &txRLP{
		From:     tx.From,
		Value:    tx.ValueOrZero(),
		Data:     tx.Data,
		Nonce:    tx.Nonce,
		Contract: tx.Contract,
	}
	if tx.To != nil {
		f.To = tx.To.Bytes()
	}
	return f
}

type txJSON struct {
	Hash        common.Hash     `json:"hash"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Value       *hexutil.Big    `json:"value"`
	Input       hexutil.Bytes   `json:"input"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	Contract    string          `json:"contract,omitempty"`
	BlockNumber *hexutil.Uint64 `json:"blockNumber,omitempty"`
}

// MarshalJSON encodes the transaction in the Ethereum JSON-RPC shape.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(&txJSON{
		Hash:     tx.Hash(),
		From:     tx.From,
		To:       tx.To,
		Value:    (*hexutil.Big)(tx.ValueOrZero()),
		Input:    tx.Data,
		Nonce:    hexutil.Uint64(tx.Nonce),
		Contract: tx.Contract,
	})
}

// UnmarshalJSON decodes the JSON-RPC shape produced by MarshalJSON.
func (tx *Transaction) UnmarshalJSON(input []byte) error {
	var dec txJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	tx.From = dec.From
	tx.To = dec.To
	tx.Value = (*big.Int)(dec.Value)
	tx.Data = dec.Input
	tx.Nonce = uint64(dec.Nonce)
	tx.Contract = dec.Contract
	return nil
}
