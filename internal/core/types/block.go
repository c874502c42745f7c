package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Block is a sealed devnet block. Block 0 is genesis.
type Block struct {
	Number       uint64
	Hash         common.Hash
	ParentHash   common.Hash
	Time         uint64
	StateRoot    common.Hash
	Transactions []common.Hash
}

type headerRLP struct {
	Number       uint64
	ParentHash   common.Hash
	Time         uint64
	StateRoot    common.Hash
	Transactions []common.Hash
}

// ComputeHash returns the keccak-256 hash of the RLP of the header fields.
func (b *Block) ComputeHash() common.Hash {
	enc, err := rlp.EncodeToBytes(&headerRLP{
		Number:       b.Number,
		ParentHash:   b.ParentHash,
		Time:         b.Time,
		StateRoot:    b.StateRoot,
		Transactions: b.Transactions,
	})
	if err != nil {
		panic("can't encode block header: " + err.Error())
	}
	return crypto.Keccak256Hash(enc)
}

// Seal fills Hash from the header fields.
func (b *Block) Seal() *Block {
	b.Hash = b.ComputeHash()
	return b
}

type blockJSON struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	ParentHash   common.Hash    `json:"parentHash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	StateRoot    common.Hash    `json:"stateRoot"`
	Transactions []any          `json:"transactions"`
}

// RPCMarshal returns the JSON-RPC representation of the block. When txs is
// non-nil, full transaction objects are embedded instead of hashes.
func (b *Block) RPCMarshal(txs []*Transaction) map[string]any {
	fields := map[string]any{
		"number":     hexutil.Uint64(b.Number),
		"hash":       b.Hash,
		"parentHash": b.ParentHash,
		"timestamp":  hexutil.Uint64(b.Time),
		"stateRoot":  b.StateRoot,
	}
	if txs != nil {
		fields["transactions"] = txs
	} else {
		hashes := b.Transactions
		if hashes == nil {
			hashes = []common.Hash{}
		}
		fields["transactions"] = hashes
	}
	return fields
}

// UnmarshalJSON decodes a block returned with transaction hashes.
func (b *Block) UnmarshalJSON(input []byte) error {
	var dec struct {
		blockJSON
		Transactions []json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*b = Block{
		Number:     uint64(dec.Number),
		Hash:       dec.Hash,
		ParentHash: dec.ParentHash,
		Time:       uint64(dec.Timestamp),
		StateRoot:  dec.StateRoot,
	}
	for _, raw := range dec.Transactions {
		var h common.Hash
		if err := json.Unmarshal(raw, &h); err == nil {
			b.Transactions = append(b.Transactions, h)
			continue
		}
		var tx Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return err
		}
		b.Transactions = append(b.Transactions, tx.Hash())
	}
	return nil
}
