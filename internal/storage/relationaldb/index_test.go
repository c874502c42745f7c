package relationaldb

import (
	"context"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrow/internal/core/types"
)

var (
	seller   = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000bB")
	contract = common.HexToAddress("0x00000000000000000000000000000000000000cC")
	topicA   = common.HexToHash("0xaaaa")
	topicB   = common.HexToHash("0xbbbb")
)

func openTestIndex(t *testing.T) *SQLIndex {
	t.Helper()
	idx, err := Open(context.Background(), NewConfig(DriverSQLite, filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func record(number uint64, from common.Address, to *common.Address, logs ...*gethtypes.Log) *BlockRecord {
	block := (&types.Block{Number: number, Time: 1000 + number}).Seal()
	tx := &types.Transaction{From: from, To: to, Value: big.NewInt(5), Nonce: number}
	receipt := &types.Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: number,
		BlockHash:   block.Hash,
		From:        from,
		To:          to,
		Status:      types.ReceiptStatusSuccessful,
	}
	for i, l := range logs {
		l.BlockNumber = number
		l.BlockHash = block.Hash
		l.TxHash = receipt.TxHash
		l.Index = uint(i)
	}
	receipt.Logs = logs
	block.Transactions = []common.Hash{tx.Hash()}
	return &BlockRecord{Block: block, Transactions: []*types.Transaction{tx}, Receipts: []*types.Receipt{receipt}}
}

func TestIndexLogs(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	require.NoError(t, idx.IndexBlock(ctx, record(1, seller, &contract,
		&gethtypes.Log{Address: contract, Topics: []common.Hash{topicA, common.BytesToHash(buyer.Bytes())}, Data: []byte{1}},
		&gethtypes.Log{Address: contract, Topics: []common.Hash{topicB}},
	)))
	require.NoError(t, idx.IndexBlock(ctx, record(2, buyer, &contract,
		&gethtypes.Log{Address: contract, Topics: []common.Hash{topicA}},
	)))

	all, err := idx.Logs(ctx, LogFilter{FromBlock: 0, ToBlock: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []byte{1}, all[0].Data)
	assert.Equal(t, contract, all[0].Address)
	assert.Len(t, all[0].Topics, 2)

	onlyA, err := idx.Logs(ctx, LogFilter{FromBlock: 0, ToBlock: 10, Topics: [][]common.Hash{{topicA}}})
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	byBuyer, err := idx.Logs(ctx, LogFilter{
		FromBlock: 0, ToBlock: 10,
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{topicA}, {common.BytesToHash(buyer.Bytes())}},
	})
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, uint64(1), byBuyer[0].BlockNumber)

	rangeTwo, err := idx.Logs(ctx, LogFilter{FromBlock: 2, ToBlock: 2})
	require.NoError(t, err)
	assert.Len(t, rangeTwo, 1)

	none, err := idx.Logs(ctx, LogFilter{FromBlock: 0, ToBlock: 10, Addresses: []common.Address{seller}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndexAccountTransactionsAndRewind(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	first := record(1, seller, &contract)
	require.NoError(t, idx.IndexBlock(ctx, first))
	require.NoError(t, idx.IndexBlock(ctx, record(2, buyer, &contract)))
	require.NoError(t, idx.IndexBlock(ctx, record(3, seller, &buyer)))

	txs, err := idx.AccountTransactions(ctx, seller, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(3), txs[0].BlockNumber)
	assert.Equal(t, "5", txs[0].Value)

	got, err := idx.Transaction(ctx, first.Receipts[0].TxHash)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.BlockNumber)

	require.NoError(t, idx.Rewind(ctx, 2))
	txs, err = idx.AccountTransactions(ctx, buyer, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = idx.AccountTransactions(ctx, buyer, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(context.Background(), NewConfig("mysql", "x"))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrInvalidDriver)

	_, err = Open(context.Background(), NewConfig(DriverPostgres, ""))
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func TestCloseWhileQuerying(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	for n := uint64(1); n <= 5; n++ {
		require.NoError(t, idx.IndexBlock(ctx, record(n, seller, &contract,
			&gethtypes.Log{Address: contract, Topics: []common.Hash{topicA}},
		)))
	}

	var (
		wg      sync.WaitGroup
		started = make(chan struct{})
		errs    = make(chan error, 64)
	)
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; ; j++ {
				if j == 1 && i == 0 {
					close(started)
				}
				_, err := idx.Logs(ctx, LogFilter{FromBlock: 0, ToBlock: 5})
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	<-started
	require.NoError(t, idx.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrDatabaseClosed)
	}
	_, err := idx.Logs(ctx, LogFilter{ToBlock: 5})
	assert.ErrorIs(t, err, ErrDatabaseClosed)
	assert.ErrorIs(t, idx.IndexBlock(ctx, record(6, seller, &contract)), ErrDatabaseClosed)
}
