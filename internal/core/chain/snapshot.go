package chain

import (
	"context"
	"fmt"

	"github.com/LeJamon/goEscrow/internal/core/state"
	"github.com/LeJamon/goEscrow/internal/core/types"
)

type snapshot struct {
	id         uint64
	head       *types.Block
	state      *state.StateDB
	pending    pendingBlock
	timeOffset int64
}

// Snapshot records the current head, state, pending transactions and time
// offset and returns an id for Revert. Ids start at 1.
func (c *Chain) Snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSnapshot++
	c.snapshots = append(c.snapshots, &snapshot{
		id:         c.nextSnapshot,
		head:       c.head,
		state:      c.headState.Copy(),
		pending:    c.pending.copy(),
		timeOffset: c.timeOffset,
	})
	c.log.Debug("Took snapshot", "id", c.nextSnapshot, "number", c.head.Number)
	return c.nextSnapshot
}

// Revert restores the chain to snapshot id. The snapshot and every snapshot
// taken after it are discarded. It reports false for an unknown id.
func (c *Chain) Revert(ctx context.Context, id uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, s := range c.snapshots {
		if s.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	snap := c.snapshots[idx]
	c.snapshots = c.snapshots[:idx]

	oldHead := c.head.Number
	if err := c.store.truncate(ctx, snap.head.Number, oldHead, snap.state, snap.timeOffset); err != nil {
		return false, fmt.Errorf("failed to truncate store to block %d: %w", snap.head.Number, err)
	}
	c.cache.removeFrom(snap.head.Number + 1)
	if c.index != nil && oldHead > snap.head.Number {
		if err := c.index.Rewind(ctx, snap.head.Number+1); err != nil {
			c.log.Warn("Failed to rewind index", "number", snap.head.Number+1, "err", err)
		}
	}

	c.head = snap.head
	c.headState = snap.state
	c.pending = snap.pending
	c.timeOffset = snap.timeOffset

	c.log.Debug("Reverted to snapshot", "id", id, "number", c.head.Number, "dropped", oldHead-c.head.Number)
	return true, nil
}
