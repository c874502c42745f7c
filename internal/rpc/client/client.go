// Package client is a JSON-RPC client for escrowd. It implements the
// contract bindings' Backend, so the same bindings drive the in-process
// chain and a remote node, and wraps the devnet control methods.
package client

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/LeJamon/goEscrow/internal/contracts/bind"
	"github.com/LeJamon/goEscrow/internal/core/chain"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/core/vm"
	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

// Client talks to an escrowd node.
type Client struct {
	c *rpc.Client
}

var _ bind.Backend = (*Client)(nil)

// Dial connects to rawurl: http(s) or ws(s).
func Dial(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient wraps an existing RPC connection.
func NewClient(c *rpc.Client) *Client {
	return &Client{c: c}
}

// Close closes the underlying connection.
func (ec *Client) Close() {
	ec.c.Close()
}

// RPC exposes the underlying client for raw calls.
func (ec *Client) RPC() *rpc.Client {
	return ec.c
}

func (ec *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return convertError(ec.c.CallContext(ctx, result, method, args...))
}

// convertError maps an execution-reverted RPC error back to *vm.RevertError.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.ErrorCode() != rpc_types.RpcEXECUTION_REVERTED {
		return err
	}
	var data []byte
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			data, _ = hexutil.Decode(s)
		}
	}
	rev := vm.NewRevertError(data)
	if rev.Reason == "" {
		msg := rpcErr.Error()
		if reason, ok := strings.CutPrefix(msg, vm.ErrExecutionReverted.Error()+": "); ok {
			rev.Reason = reason
		}
	}
	return rev
}

func toCallArg(from common.Address, to *common.Address, value *big.Int, data []byte) map[string]interface{} {
	arg := map[string]interface{}{
		"from": from,
	}
	if to != nil {
		arg["to"] = to
	}
	if len(data) > 0 {
		arg["input"] = hexutil.Bytes(data)
	}
	if value != nil {
		arg["value"] = (*hexutil.Big)(value)
	}
	return arg
}

// SendTransaction submits tx through eth_sendTransaction. The node assigns
// the nonce; tx.Nonce is ignored.
func (ec *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	arg := toCallArg(tx.From, tx.To, tx.Value, tx.Data)
	if tx.Contract != "" {
		arg["contract"] = tx.Contract
	}
	var hash common.Hash
	err := ec.call(ctx, &hash, "eth_sendTransaction", arg)
	return hash, err
}

// CallContract executes a read-only call against the head state.
func (ec *Client) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	err := ec.call(ctx, &out, "eth_call", toCallArg(msg.From, msg.To, msg.Value, msg.Data), "latest")
	return out, err
}

// TransactionReceipt returns ethereum.NotFound while the transaction is
// pending.
func (ec *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	if err := ec.call(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// TransactionByHash returns a sealed or pending transaction.
func (ec *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	var tx *types.Transaction
	if err := ec.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

// CodeAt returns the contract kind deployed at addr, "" for accounts.
func (ec *Client) CodeAt(ctx context.Context, addr common.Address) (string, error) {
	var code hexutil.Bytes
	err := ec.call(ctx, &code, "eth_getCode", addr, "latest")
	return string(code), err
}

// BalanceAt returns the head balance of addr.
func (ec *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	var balance hexutil.Big
	err := ec.call(ctx, &balance, "eth_getBalance", addr, "latest")
	return balance.ToInt(), err
}

// NonceAt returns the number of sealed transactions sent by addr.
func (ec *Client) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	err := ec.call(ctx, &nonce, "eth_getTransactionCount", addr, "latest")
	return uint64(nonce), err
}

// ChainID returns the chain id.
func (ec *Client) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	err := ec.call(ctx, &id, "eth_chainId")
	return uint64(id), err
}

// ClientVersion returns web3_clientVersion.
func (ec *Client) ClientVersion(ctx context.Context) (string, error) {
	var version string
	err := ec.call(ctx, &version, "web3_clientVersion")
	return version, err
}

// Accounts returns the devnet signers in role order.
func (ec *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := ec.call(ctx, &accounts, "eth_accounts")
	return accounts, err
}

// BlockNumber returns the head block number.
func (ec *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	err := ec.call(ctx, &n, "eth_blockNumber")
	return uint64(n), err
}

// BlockByNumber returns a block with transaction hashes. A nil number
// means the head.
func (ec *Client) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	tag := "latest"
	if number != nil {
		tag = hexutil.EncodeBig(number)
	}
	var b *types.Block
	if err := ec.call(ctx, &b, "eth_getBlockByNumber", tag, false); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ethereum.NotFound
	}
	return b, nil
}

// FilterLogs runs eth_getLogs.
func (ec *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error) {
	var logs []gethtypes.Log
	err := ec.call(ctx, &logs, "eth_getLogs", toFilterArg(q))
	return logs, err
}

func toFilterArg(q ethereum.FilterQuery) map[string]interface{} {
	arg := map[string]interface{}{}
	if len(q.Addresses) > 0 {
		arg["address"] = q.Addresses
	}
	if len(q.Topics) > 0 {
		arg["topics"] = q.Topics
	}
	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
		return arg
	}
	arg["fromBlock"] = blockTag(q.FromBlock, "earliest")
	arg["toBlock"] = blockTag(q.ToBlock, "latest")
	return arg
}

func blockTag(n *big.Int, def string) string {
	if n == nil {
		return def
	}
	if n.Sign() < 0 {
		return rpc.BlockNumber(n.Int64()).String()
	}
	return hexutil.EncodeBig(n)
}

// Sign returns the personal-message signature of data by account.
func (ec *Client) Sign(ctx context.Context, account common.Address, data []byte) ([]byte, error) {
	var sig hexutil.Bytes
	err := ec.call(ctx, &sig, "eth_sign", account, hexutil.Bytes(data))
	return sig, err
}

// Contracts lists deployed contracts with their kinds.
func (ec *Client) Contracts(ctx context.Context) (map[common.Address]string, error) {
	var contracts map[common.Address]string
	err := ec.call(ctx, &contracts, "escrowd_contracts")
	return contracts, err
}

// Listing reads the full listing of tokenID on the escrow at addr.
func (ec *Client) Listing(ctx context.Context, addr common.Address, tokenID *big.Int) (*rpc_types.ListingResult, error) {
	var l rpc_types.ListingResult
	if err := ec.call(ctx, &l, "escrowd_listing", addr, (*hexutil.Big)(tokenID)); err != nil {
		return nil, err
	}
	return &l, nil
}

// Snapshot records the chain state; Revert restores it.
func (ec *Client) Snapshot(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	err := ec.call(ctx, &id, "evm_snapshot")
	return uint64(id), err
}

// Revert restores a snapshot. It reports false for unknown ids.
func (ec *Client) Revert(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	err := ec.call(ctx, &ok, "evm_revert", hexutil.Uint64(id))
	return ok, err
}

// Mine seals the pending block.
func (ec *Client) Mine(ctx context.Context) error {
	return ec.call(ctx, nil, "evm_mine")
}

// SetAutomine switches between automatic and manual mining.
func (ec *Client) SetAutomine(ctx context.Context, enabled bool) error {
	return ec.call(ctx, nil, "evm_setAutomine", enabled)
}

// IncreaseTime shifts the timestamp of future blocks and returns the total
// offset.
func (ec *Client) IncreaseTime(ctx context.Context, d time.Duration) (time.Duration, error) {
	var total int64
	err := ec.call(ctx, &total, "evm_increaseTime", int64(d/time.Second))
	return time.Duration(total) * time.Second, err
}

// SetBalance overwrites the balance of addr.
func (ec *Client) SetBalance(ctx context.Context, addr common.Address, amount *big.Int) error {
	return ec.call(ctx, nil, "hardhat_setBalance", addr, (*hexutil.Big)(amount))
}

// SubscribeNewHeads streams sealed blocks. It needs a websocket connection.
func (ec *Client) SubscribeNewHeads(ctx context.Context, ch chan<- *types.Block) (ethereum.Subscription, error) {
	return ec.c.EthSubscribe(ctx, ch, "newHeads")
}

// SubscribeFilterLogs streams logs matching q. It needs a websocket
// connection.
func (ec *Client) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- gethtypes.Log) (ethereum.Subscription, error) {
	arg := map[string]interface{}{}
	if len(q.Addresses) > 0 {
		arg["address"] = q.Addresses
	}
	if len(q.Topics) > 0 {
		arg["topics"] = q.Topics
	}
	return ec.c.EthSubscribe(ctx, ch, "logs", arg)
}
