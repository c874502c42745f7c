package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goEscrow/internal/core/state"
	"github.com/LeJamon/goEscrow/internal/core/types"
	"github.com/LeJamon/goEscrow/internal/storage/compression"
	"github.com/LeJamon/goEscrow/internal/storage/keyValueDb"
)

var (
	headKey       = []byte("LastBlock")
	stateKey      = []byte("HeadState")
	timeOffsetKey = []byte("TimeOffset")

	blockPrefix    = []byte("b") // blockPrefix + num (uint64 big endian) -> blockRecord
	txLookupPrefix = []byte("l") // txLookupPrefix + hash -> block number
)

// blockRecord is the stored form of a sealed block.
type blockRecord struct {
	Block        *types.Block         `codec:"block"`
	Transactions []*types.Transaction `codec:"txs"`
	Receipts     []*types.Receipt     `codec:"receipts"`
}

func (r *blockRecord) receipt(hash common.Hash) (*types.Receipt, *types.Transaction) {
	for i, receipt := range r.Receipts {
		if receipt.TxHash == hash {
			return receipt, r.Transactions[i]
		}
	}
	return nil, nil
}

func encodeNumber(n uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, n)
	return enc
}

func blockKey(n uint64) []byte {
	return append(append([]byte{}, blockPrefix...), encodeNumber(n)...)
}

func txLookupKey(hash common.Hash) []byte {
	return append(append([]byte{}, txLookupPrefix...), hash.Bytes()...)
}

// store persists chain data as compressed msgpack records.
type store struct {
	db     keyValueDb.DB
	comp   compression.Compressor
	handle *codec.MsgpackHandle
}

func newStore(db keyValueDb.DB, compressor string) (*store, error) {
	comp, err := compression.Get(compressor)
	if err != nil {
		return nil, err
	}
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return &store{db: db, comp: comp, handle: h}, nil
}

func (s *store) encode(v interface{}) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, s.handle).Encode(v); err != nil {
		return nil, err
	}
	return s.comp.Compress(buf)
}

func (s *store) decode(data []byte, v interface{}) error {
	raw, err := s.comp.Decompress(data)
	if err != nil {
		return err
	}
	return codec.NewDecoderBytes(raw, s.handle).Decode(v)
}

// writeBlock stores the block, its tx lookups and the new head state in a
// single batch.
func (s *store) writeBlock(ctx context.Context, rec *blockRecord, st *state.StateDB, timeOffset int64) error {
	enc, err := s.encode(rec)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", rec.Block.Number, err)
	}
	stEnc, err := s.encode(st.Dump())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	number := encodeNumber(rec.Block.Number)
	ops := []keyValueDb.BatchOperation{
		keyValueDb.Put(blockKey(rec.Block.Number), enc),
		keyValueDb.Put(headKey, number),
		keyValueDb.Put(stateKey, stEnc),
		keyValueDb.Put(timeOffsetKey, encodeNumber(uint64(timeOffset))),
	}
	for _, tx := range rec.Transactions {
		ops = append(ops, keyValueDb.Put(txLookupKey(tx.Hash()), number))
	}
	return s.db.Batch(ctx, ops)
}

func (s *store) writeState(ctx context.Context, st *state.StateDB) error {
	enc, err := s.encode(st.Dump())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.db.Write(ctx, stateKey, enc)
}

func (s *store) writeTimeOffset(ctx context.Context, offset int64) error {
	return s.db.Write(ctx, timeOffsetKey, encodeNumber(uint64(offset)))
}

func (s *store) readBlock(ctx context.Context, n uint64) (*blockRecord, error) {
	data, err := s.db.Read(ctx, blockKey(n))
	if err != nil {
		if errors.Is(err, keyValueDb.ErrKeyNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	rec := new(blockRecord)
	if err := s.decode(data, rec); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", n, err)
	}
	return rec, nil
}

func (s *store) lookupTx(ctx context.Context, hash common.Hash) (uint64, bool, error) {
	data, err := s.db.Read(ctx, txLookupKey(hash))
	if err != nil {
		if errors.Is(err, keyValueDb.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// readHead returns the stored head number, state and time offset. ok is
// false for an empty store.
func (s *store) readHead(ctx context.Context) (head uint64, st *state.StateDB, offset int64, ok bool, err error) {
	data, err := s.db.Read(ctx, headKey)
	if err != nil {
		if errors.Is(err, keyValueDb.ErrKeyNotFound) {
			return 0, nil, 0, false, nil
		}
		return 0, nil, 0, false, err
	}
	head = binary.BigEndian.Uint64(data)

	stData, err := s.db.Read(ctx, stateKey)
	if err != nil {
		return 0, nil, 0, false, fmt.Errorf("read head state: %w", err)
	}
	var dump state.Dump
	if err := s.decode(stData, &dump); err != nil {
		return 0, nil, 0, false, fmt.Errorf("decode head state: %w", err)
	}

	if raw, err := s.db.Read(ctx, timeOffsetKey); err == nil {
		offset = int64(binary.BigEndian.Uint64(raw))
	} else if !errors.Is(err, keyValueDb.ErrKeyNotFound) {
		return 0, nil, 0, false, err
	}
	return head, state.FromDump(&dump), offset, true, nil
}

// truncate removes blocks after head and rewrites the head pointer, state
// and time offset.
func (s *store) truncate(ctx context.Context, head, oldHead uint64, st *state.StateDB, timeOffset int64) error {
	var ops []keyValueDb.BatchOperation
	for n := head + 1; n <= oldHead; n++ {
		rec, err := s.readBlock(ctx, n)
		if err != nil {
			return err
		}
		for _, tx := range rec.Transactions {
			ops = append(ops, keyValueDb.Del(txLookupKey(tx.Hash())))
		}
		ops = append(ops, keyValueDb.Del(blockKey(n)))
	}
	stEnc, err := s.encode(st.Dump())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	ops = append(ops,
		keyValueDb.Put(headKey, encodeNumber(head)),
		keyValueDb.Put(stateKey, stEnc),
		keyValueDb.Put(timeOffsetKey, encodeNumber(uint64(timeOffset))),
	)
	return s.db.Batch(ctx, ops)
}
