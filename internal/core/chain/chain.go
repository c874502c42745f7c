// Package chain is the single-node development chain: it orders
// transactions into blocks, executes them against the contract runtime,
// answers read-only calls and keeps the sealed history in a key-value store.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/LeJamon/goEscrow/internal/core/account"
	"github.com/LeJamon/goEscrow/internal/core/state"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/core/vm"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
	"github.com/LeJamon/goEscrow/internal/storage/relationaldb"
)

// Common errors
var (
	ErrClosed            = errors.New("chain is closed")
	ErrBlockNotFound     = errors.New("block not found")
	ErrTxNotFound        = errors.New("transaction not found")
	ErrReceiptNotFound   = errors.New("receipt not found")
	ErrInsufficientFunds = errors.New("insufficient funds for value")
	ErrNegativeValue     = errors.New("negative value")
	ErrMissingRecipient  = errors.New("transaction has no recipient")
)

// CallMsg is a read-only contract call.
type CallMsg struct {
	From  common.Address
	To    *common.Address
	Value *big.Int
	Data  []byte
}

type pendingBlock struct {
	state    *state.StateDB
	time     uint64
	txs      []*types.Transaction
	receipts []*types.Receipt
}

func newPending(st *state.StateDB) pendingBlock {
	return pendingBlock{state: st}
}

func (p pendingBlock) copy() pendingBlock {
	return pendingBlock{
		state:    p.state.Copy(),
		time:     p.time,
		txs:      append([]*types.Transaction(nil), p.txs...),
		receipts: append([]*types.Receipt(nil), p.receipts...),
	}
}

type sealed struct {
	block *types.Block
	logs  []*gethtypes.Log
}

// Chain manages the block lifecycle
type Chain struct {
	mu sync.RWMutex

	cfg   Config
	log   log.Logger
	clock Clock

	store     *store
	ownsStore bool
	index     relationaldb.Index
	cache     *blockCache

	head       *types.Block
	headState  *state.StateDB
	pending    pendingBlock
	timeOffset int64

	snapshots    []*snapshot
	nextSnapshot uint64

	headFeed event.Feed
	logsFeed event.Feed
	scope    event.SubscriptionScope

	closed bool
}

// New opens the chain. When the configured store already holds a chain it
// is resumed, otherwise a genesis block is created.
func New(cfg Config) (*Chain, error) {
	def := DefaultConfig()
	if cfg.ChainID == 0 {
		cfg.ChainID = def.ChainID
	}
	if cfg.Signers == nil {
		cfg.Signers = def.Signers
	}
	if cfg.SignerBalance == nil {
		cfg.SignerBalance = def.SignerBalance
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New("module", "chain")
	}

	c := &Chain{
		cfg:   cfg,
		log:   cfg.Logger,
		clock: cfg.Clock,
		index: cfg.Index,
	}

	db := cfg.Store
	if db == nil {
		db = keyValueDb.NewMemoryDB()
		c.ownsStore = true
	}
	var err error
	if c.store, err = newStore(db, cfg.Compression); err != nil {
		return nil, err
	}
	if c.cache, err = newBlockCache(cfg.CacheSize); err != nil {
		return nil, err
	}

	ctx := context.Background()
	headNum, st, offset, ok, err := c.store.readHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain head: %w", err)
	}
	if ok {
		rec, err := c.store.readBlock(ctx, headNum)
		if err != nil {
			return nil, fmt.Errorf("failed to read head block %d: %w", headNum, err)
		}
		c.head, c.headState, c.timeOffset = rec.Block, st, offset
		c.cache.add(rec)
		c.log.Info("Resumed chain", "number", headNum, "hash", rec.Block.Hash, "accounts", len(st.Addresses()))
	} else if err := c.createGenesis(ctx); err != nil {
		return nil, fmt.Errorf("failed to create genesis block: %w", err)
	}
	c.pending = newPending(c.headState.Copy())
	return c, nil
}

func (c *Chain) createGenesis(ctx context.Context) error {
	st := state.New()
	for _, s := range c.cfg.Signers.All() {
		st.AddBalance(s.Address, c.cfg.SignerBalance)
	}
	for addr, balance := range c.cfg.Alloc {
		st.AddBalance(addr, balance)
	}
	t := c.cfg.GenesisTime
	if t.IsZero() {
		t = c.clock.Now()
	}
	genesis := (&types.Block{
		Number:       0,
		Time:         uint64(t.Unix()),
		StateRoot:    st.Root(),
		Transactions: []common.Hash{},
	}).Seal()

	rec := &blockRecord{Block: genesis}
	if err := c.store.writeBlock(ctx, rec, st, 0); err != nil {
		return err
	}
	c.indexBlock(ctx, rec)
	c.cache.add(rec)
	c.head, c.headState = genesis, st
	c.log.Info("Created genesis block", "hash", genesis.Hash, "signers", c.cfg.Signers.Len(), "chainid", c.cfg.ChainID)
	return nil
}

func (c *Chain) indexBlock(ctx context.Context, rec *blockRecord) {
	if c.index == nil {
		return
	}
	err := c.index.IndexBlock(ctx, &relationaldb.BlockRecord{
		Block:        rec.Block,
		Transactions: rec.Transactions,
		Receipts:     rec.Receipts,
	})
	if err != nil {
		c.log.Warn("Failed to index block", "number", rec.Block.Number, "err", err)
	}
}

// ChainID returns the configured chain id.
func (c *Chain) ChainID() uint64 { return c.cfg.ChainID }

// Signers returns the devnet accounts.
func (c *Chain) Signers() *account.Set { return c.cfg.Signers }

// AutoMine reports whether every transaction is sealed immediately.
func (c *Chain) AutoMine() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.AutoMine
}

// SetAutoMine switches between automatic and manual mining. Enabling
// automine seals any queued transactions.
func (c *Chain) SetAutoMine(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	c.cfg.AutoMine = enabled
	var s *sealed
	var err error
	if enabled && len(c.pending.txs) > 0 {
		s, err = c.mine(ctx)
	}
	c.mu.Unlock()
	c.publish(s)
	return err
}

// nextTime returns the timestamp for the next block; it always exceeds the
// head's.
func (c *Chain) nextTime() uint64 {
	t := c.clock.Now().Unix() + c.timeOffset
	if t <= int64(c.head.Time) {
		t = int64(c.head.Time) + 1
	}
	return uint64(t)
}

func (c *Chain) pendingContext() vm.BlockContext {
	if len(c.pending.txs) == 0 {
		c.pending.time = c.nextTime()
	}
	return vm.BlockContext{
		Number:  c.head.Number + 1,
		Time:    c.pending.time,
		ChainID: c.cfg.ChainID,
	}
}

// SendTransaction executes tx on the pending state and returns its hash.
// The nonce is assigned from the sender's pending nonce. Execution failures
// do not return an error: the transaction is mined with a failed receipt.
func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return common.Hash{}, ErrClosed
	}
	cpy := *tx
	tx = &cpy

	if err := c.validate(tx); err != nil {
		c.mu.Unlock()
		return common.Hash{}, err
	}
	tx.Nonce = c.pending.state.GetNonce(tx.From)
	hash := tx.Hash()

	receipt := c.apply(c.pending.state, tx, c.pendingContext(), len(c.pending.txs))
	c.pending.txs = append(c.pending.txs, tx)
	c.pending.receipts = append(c.pending.receipts, receipt)
	c.log.Debug("Accepted transaction", "hash", hash, "from", tx.From, "nonce", tx.Nonce, "status", receipt.Status)

	var s *sealed
	var err error
	if c.cfg.AutoMine {
		s, err = c.mine(ctx)
	}
	c.mu.Unlock()
	c.publish(s)
	return hash, err
}

func (c *Chain) validate(tx *types.Transaction) error {
	if tx.IsDeployment() {
		if tx.Contract == "" {
			return ErrMissingRecipient
		}
		if _, ok := vm.Lookup(tx.Contract); !ok {
			return fmt.Errorf("%w: %q", vm.ErrUnknownContract, tx.Contract)
		}
	}
	value := tx.ValueOrZero()
	if value.Sign() < 0 {
		return ErrNegativeValue
	}
	if c.pending.state.GetBalance(tx.From).Cmp(value) < 0 {
		return fmt.Errorf("%w: address %s", ErrInsufficientFunds, tx.From.Hex())
	}
	return nil
}

// apply executes tx against st. The sender's nonce is consumed whether or
// not execution succeeds; everything else is discarded on failure.
func (c *Chain) apply(st *state.StateDB, tx *types.Transaction, block vm.BlockContext, index int) *types.Receipt {
	nonce := st.GetNonce(tx.From)
	st.SetNonce(tx.From, nonce+1)

	work := st.Copy()
	rt := vm.NewRuntime(work, block, tx.From)
	receipt := &types.Receipt{
		TxHash:           tx.Hash(),
		BlockNumber:      block.Number,
		TransactionIndex: uint(index),
		From:             tx.From,
		To:               tx.To,
		Status:           types.ReceiptStatusSuccessful,
	}

	var err error
	if tx.IsDeployment() {
		var addr common.Address
		addr, err = rt.Create(tx.From, nonce, tx.Contract, tx.Data, tx.ValueOrZero())
		if err == nil {
			receipt.ContractAddress = &addr
		}
	} else {
		receipt.ReturnData, err = rt.Call(tx.From, *tx.To, tx.Data, tx.ValueOrZero())
	}
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.ReturnData = nil
		if rev, ok := vm.IsRevert(err); ok {
			receipt.RevertReason = rev.Reason
			receipt.ReturnData = rev.Data
		} else {
			receipt.RevertReason = err.Error()
		}
		c.log.Debug("Transaction failed", "hash", receipt.TxHash, "reason", receipt.RevertReason)
		return receipt
	}

	st.Reset(work)
	receipt.Logs = rt.Logs()
	for _, l := range receipt.Logs {
		l.TxHash = receipt.TxHash
		l.TxIndex = uint(index)
		l.BlockNumber = block.Number
	}
	return receipt
}

// Mine seals the pending transactions into a new block. With nothing
// pending an empty block is produced.
func (c *Chain) Mine(ctx context.Context) (*types.Block, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	s, err := c.mine(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.publish(s)
	return s.block, nil
}

func (c *Chain) mine(ctx context.Context) (*sealed, error) {
	number := c.head.Number + 1
	t := c.pending.time
	if len(c.pending.txs) == 0 {
		t = c.nextTime()
	}
	hashes := make([]common.Hash, len(c.pending.txs))
	for i, tx := range c.pending.txs {
		hashes[i] = tx.Hash()
	}
	block := (&types.Block{
		Number:       number,
		ParentHash:   c.head.Hash,
		Time:         t,
		StateRoot:    c.pending.state.Root(),
		Transactions: hashes,
	}).Seal()

	var logs []*gethtypes.Log
	var logIndex uint
	for _, r := range c.pending.receipts {
		r.BlockNumber = number
		r.BlockHash = block.Hash
		for _, l := range r.Logs {
			l.BlockNumber = number
			l.BlockHash = block.Hash
			l.Index = logIndex
			logIndex++
			logs = append(logs, l)
		}
	}

	rec := &blockRecord{Block: block, Transactions: c.pending.txs, Receipts: c.pending.receipts}
	if err := c.store.writeBlock(ctx, rec, c.pending.state, c.timeOffset); err != nil {
		return nil, fmt.Errorf("failed to persist block %d: %w", number, err)
	}
	c.indexBlock(ctx, rec)
	c.cache.add(rec)

	c.head = block
	c.headState = c.pending.state
	c.pending = newPending(c.headState.Copy())

	c.log.Info("Mined block", "number", number, "hash", block.Hash, "txs", len(hashes), "logs", len(logs))
	return &sealed{block: block, logs: logs}, nil
}

func (c *Chain) publish(s *sealed) {
	if s == nil {
		return
	}
	c.headFeed.Send(s.block)
	if len(s.logs) > 0 {
		c.logsFeed.Send(s.logs)
	}
}

// Call executes a read-only call against a copy of the head state.
func (c *Chain) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	if msg.To == nil {
		return nil, ErrMissingRecipient
	}
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClosed
	}
	st := c.headState.Copy()
	block := vm.BlockContext{Number: c.head.Number + 1, Time: c.nextTime(), ChainID: c.cfg.ChainID}
	c.mu.RUnlock()

	rt := vm.NewRuntime(st, block, msg.From)
	return rt.Call(msg.From, *msg.To, msg.Data, msg.Value)
}

// Head returns the latest sealed block.
func (c *Chain) Head() *types.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head
}

// BlockNumber returns the number of the latest sealed block.
func (c *Chain) BlockNumber() uint64 {
	return c.Head().Number
}

func (c *Chain) record(ctx context.Context, number uint64) (*blockRecord, error) {
	if rec, ok := c.cache.get(number); ok {
		return rec, nil
	}
	rec, err := c.store.readBlock(ctx, number)
	if err != nil {
		return nil, err
	}
	c.cache.add(rec)
	return rec, nil
}

// BlockByNumber returns a sealed block and its transactions.
func (c *Chain) BlockByNumber(ctx context.Context, number uint64) (*types.Block, []*types.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if number > c.head.Number {
		return nil, nil, ErrBlockNotFound
	}
	rec, err := c.record(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	return rec.Block, rec.Transactions, nil
}

// Transaction returns a mined or pending transaction.
func (c *Chain) Transaction(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, tx := range c.pending.txs {
		if tx.Hash() == hash {
			return tx, nil
		}
	}
	number, ok, err := c.store.lookupTx(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTxNotFound
	}
	rec, err := c.record(ctx, number)
	if err != nil {
		return nil, err
	}
	if _, tx := rec.receipt(hash); tx != nil {
		return tx, nil
	}
	return nil, ErrTxNotFound
}

// Receipt returns the receipt of a mined transaction. Pending transactions
// have no receipt yet.
func (c *Chain) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	number, ok, err := c.store.lookupTx(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrReceiptNotFound
	}
	rec, err := c.record(ctx, number)
	if err != nil {
		return nil, err
	}
	if receipt, _ := rec.receipt(hash); receipt != nil {
		return receipt, nil
	}
	return nil, ErrReceiptNotFound
}

// Balance returns the head balance of addr.
func (c *Chain) Balance(addr common.Address) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headState.GetBalance(addr)
}

// Nonce returns the head nonce of addr.
func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headState.GetNonce(addr)
}

// PendingNonce returns the nonce the next transaction from addr will use.
func (c *Chain) PendingNonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending.state.GetNonce(addr)
}

// Code returns the contract kind deployed at addr, or "" for accounts.
func (c *Chain) Code(addr common.Address) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headState.GetCode(addr)
}

// Contracts returns every deployed contract and its kind.
func (c *Chain) Contracts() map[common.Address]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headState.Contracts()
}

// PendingCount returns the number of queued transactions.
func (c *Chain) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending.txs)
}

// CacheStats reports block cache hits and misses.
func (c *Chain) CacheStats() CacheStats {
	return c.cache.stats()
}

// SetBalance overwrites the balance of addr in the head and pending state.
func (c *Chain) SetBalance(ctx context.Context, addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeValue
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headState.SetBalance(addr, amount)
	c.pending.state.SetBalance(addr, amount)
	return c.store.writeState(ctx, c.headState)
}

// IncreaseTime shifts the timestamps of subsequent blocks by d (whole
// seconds) and returns the total shift.
func (c *Chain) IncreaseTime(ctx context.Context, d time.Duration) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeOffset += int64(d / time.Second)
	if err := c.store.writeTimeOffset(ctx, c.timeOffset); err != nil {
		return 0, err
	}
	return time.Duration(c.timeOffset) * time.Second, nil
}

// SubscribeNewHeads delivers every sealed block to ch.
func (c *Chain) SubscribeNewHeads(ch chan<- *types.Block) event.Subscription {
	return c.scope.Track(c.headFeed.Subscribe(ch))
}

// SubscribeLogs delivers the logs of every sealed block to ch. Blocks
// without logs are skipped.
func (c *Chain) SubscribeLogs(ch chan<- []*gethtypes.Log) event.Subscription {
	return c.scope.Track(c.logsFeed.Subscribe(ch))
}

// Close ends all subscriptions. The store and index passed in Config stay
// open; they belong to the caller.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.scope.Close()
	if c.ownsStore {
		return c.store.db.Close()
	}
	return nil
}
