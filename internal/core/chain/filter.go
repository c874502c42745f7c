package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/LeJamon/goEscrow/internal/storage/relationaldb"
)

// resolveBlock maps a query bound to a block number. nil and the negative
// rpc tags (latest, pending, safe, finalized) mean the head; earliest
// arrives as 0.
func resolveBlock(n *big.Int, head uint64) uint64 {
	if n == nil || n.Sign() < 0 || !n.IsUint64() || n.Uint64() > head {
		return head
	}
	return n.Uint64()
}

// FilterLogs returns the sealed logs matching q. The SQL index answers when
// configured; otherwise blocks are scanned.
func (c *Chain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]*gethtypes.Log, error) {
	c.mu.RLock()
	head := c.head.Number
	c.mu.RUnlock()

	var from, to uint64
	if q.BlockHash != nil {
		number, err := c.blockNumberByHash(ctx, *q.BlockHash, head)
		if err != nil {
			return nil, err
		}
		from, to = number, number
	} else {
		from, to = resolveBlock(q.FromBlock, head), resolveBlock(q.ToBlock, head)
	}
	if from > to {
		return []*gethtypes.Log{}, nil
	}

	if c.index != nil {
		return c.index.Logs(ctx, relationaldb.LogFilter{
			FromBlock: from,
			ToBlock:   to,
			Addresses: q.Addresses,
			Topics:    q.Topics,
		})
	}

	out := []*gethtypes.Log{}
	for n := from; n <= to; n++ {
		c.mu.RLock()
		rec, err := c.record(ctx, n)
		c.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		for _, r := range rec.Receipts {
			out = append(out, MatchLogs(r.Logs, q.Addresses, q.Topics)...)
		}
	}
	return out, nil
}

func (c *Chain) blockNumberByHash(ctx context.Context, hash common.Hash, head uint64) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n := head; ; n-- {
		rec, err := c.record(ctx, n)
		if err != nil {
			return 0, err
		}
		if rec.Block.Hash == hash {
			return n, nil
		}
		if n == 0 {
			return 0, ErrBlockNotFound
		}
	}
}

// MatchLogs returns the logs whose address is in addresses (any when
// empty) and whose topics match position by position. An empty topic
// position matches anything.
func MatchLogs(logs []*gethtypes.Log, addresses []common.Address, topics [][]common.Hash) []*gethtypes.Log {
	var ret []*gethtypes.Log
Logs:
	for _, l := range logs {
		if len(addresses) > 0 && !containsAddress(addresses, l.Address) {
			continue
		}
		if len(topics) > len(l.Topics) {
			continue
		}
		for i, sub := range topics {
			if len(sub) == 0 {
				continue
			}
			match := false
			for _, topic := range sub {
				if l.Topics[i] == topic {
					match = true
					break
				}
			}
			if !match {
				continue Logs
			}
		}
		ret = append(ret, l)
	}
	return ret
}

func containsAddress(addrs []common.Address, a common.Address) bool {
	for _, addr := range addrs {
		if addr == a {
			return true
		}
	}
	return false
}
