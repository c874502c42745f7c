package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

const (
	// ReceiptStatusFailed is the status of a reverted transaction.
	ReceiptStatusFailed = uint64(0)
	// ReceiptStatusSuccessful is the status of an applied transaction.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt records the outcome of a mined transaction.
type Receipt struct {
	TxHash           common.Hash
	BlockNumber      uint64
	BlockHash        common.Hash
	TransactionIndex uint
	From             common.Address
	To               *common.Address
	ContractAddress  *common.Address
	Status           uint64
	Logs             []*gethtypes.Log
	ReturnData       []byte
	RevertReason     string
}

// Succeeded reports whether the transaction was applied.
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

type receiptJSON struct {
	TxHash           common.Hash      `json:"transactionHash"`
	BlockNumber      hexutil.Uint64   `json:"blockNumber"`
	BlockHash        common.Hash      `json:"blockHash"`
	TransactionIndex hexutil.Uint     `json:"transactionIndex"`
	From             common.Address   `json:"from"`
	To               *common.Address  `json:"to"`
	ContractAddress  *common.Address  `json:"contractAddress"`
	Status           hexutil.Uint64   `json:"status"`
	Logs             []*gethtypes.Log `json:"logs"`
	ReturnData       hexutil.Bytes    `json:"returnData,omitempty"`
	RevertReason     string           `json:"revertReason,omitempty"`
}

// MarshalJSON encodes the receipt in the Ethereum JSON-RPC shape.
func (r *Receipt) MarshalJSON() ([]byte, error) {
	logs := r.Logs
	if logs == nil {
		logs = []*gethtypes.Log{}
	}
	return json.Marshal(&receiptJSON{
		TxHash:           r.TxHash,
		BlockNumber:      hexutil.Uint64(r.BlockNumber),
		BlockHash:        r.BlockHash,
		TransactionIndex: hexutil.Uint(r.TransactionIndex),
		From:             r.From,
		To:               r.To,
		ContractAddress:  r.ContractAddress,
		Status:           hexutil.Uint64(r.Status),
		Logs:             logs,
		ReturnData:       r.ReturnData,
		RevertReason:     r.RevertReason,
	})
}

// UnmarshalJSON decodes a receipt produced by MarshalJSON.
func (r *Receipt) UnmarshalJSON(input []byte) error {
	var dec receiptJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*r = Receipt{
		TxHash:           dec.TxHash,
		BlockNumber:      uint64(dec.BlockNumber),
		BlockHash:        dec.BlockHash,
		TransactionIndex: uint(dec.TransactionIndex),
		From:             dec.From,
		To:               dec.To,
		ContractAddress:  dec.ContractAddress,
		Status:           uint64(dec.Status),
		Logs:             dec.Logs,
		ReturnData:       dec.ReturnData,
		RevertReason:     dec.RevertReason,
	}
	return nil
}
