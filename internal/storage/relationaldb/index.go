// Package relationaldb keeps a SQL index of mined transactions and logs so
// log filters and per-account history can be answered without scanning
// blocks. Both sqlite (modernc.org/sqlite) and postgres (lib/pq) are
// supported through sqlx.
package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/LeJamon/goEscrow/internal/core/types"
)

// BlockRecord is one sealed block with its transactions and receipts, in
// block order.
type BlockRecord struct {
	Block        *types.Block
	Transactions []*types.Transaction
	Receipts     []*types.Receipt
}

// LogFilter selects logs. Topics follows eth_getLogs semantics: position i
// matches any of Topics[i]; an empty position matches anything.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []common.Address
	Topics    [][]common.Hash
}

// TxRecord is an indexed transaction summary.
type TxRecord struct {
	Hash            string         `db:"hash" json:"hash"`
	BlockNumber     int64          `db:"block_number" json:"blockNumber"`
	TxIndex         int64          `db:"tx_index" json:"transactionIndex"`
	From            string         `db:"from_addr" json:"from"`
	To              sql.NullString `db:"to_addr" json:"-"`
	ContractAddress sql.NullString `db:"contract_address" json:"-"`
	Value           string         `db:"value" json:"value"`
	Status          int64          `db:"status" json:"status"`
	RevertReason    string         `db:"revert_reason" json:"revertReason,omitempty"`
}

// Index is the query surface the chain and RPC layer use.
type Index interface {
	IndexBlock(ctx context.Context, rec *BlockRecord) error
	Logs(ctx context.Context, filter LogFilter) ([]*gethtypes.Log, error)
	AccountTransactions(ctx context.Context, addr common.Address, limit int) ([]TxRecord, error)
	// Rewind drops everything at or above the given block number.
	Rewind(ctx context.Context, number uint64) error
	Close() error
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocks (
		number BIGINT PRIMARY KEY,
		hash TEXT NOT NULL,
		parent_hash TEXT NOT NULL,
		time BIGINT NOT NULL,
		tx_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		hash TEXT PRIMARY KEY,
		block_number BIGINT NOT NULL,
		tx_index INTEGER NOT NULL,
		from_addr TEXT NOT NULL,
		to_addr TEXT,
		contract_address TEXT,
		value TEXT NOT NULL,
		status INTEGER NOT NULL,
		revert_reason TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		block_number BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		tx_index INTEGER NOT NULL,
		log_index INTEGER NOT NULL,
		address TEXT NOT NULL,
		topic0 TEXT,
		topic1 TEXT,
		topic2 TEXT,
		topic3 TEXT,
		data TEXT NOT NULL,
		PRIMARY KEY (block_number, log_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions(from_addr)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions(to_addr)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_address ON logs(address)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_topic0 ON logs(topic0)`,
}

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// SQLIndex implements Index on sqlx. Queries hold a read lock for their
// whole run; Close takes the write lock and so waits for them.
type SQLIndex struct {
	mu sync.RWMutex
	db *sqlx.DB
}

// Open connects, configures the pool and creates the schema.
func Open(ctx context.Context, cfg *Config) (*SQLIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newConfigurationError("open", "invalid configuration", err)
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, newConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, newConnectionError("open", "failed to ping database", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, newSchemaError("open", "failed to initialize schema", err)
		}
	}
	return &SQLIndex{db: db}, nil
}

type blockRow struct {
	Number     int64  `db:"number"`
	Hash       string `db:"hash"`
	ParentHash string `db:"parent_hash"`
	Time       int64  `db:"time"`
	TxCount    int    `db:"tx_count"`
}

type logRow struct {
	BlockNumber int64          `db:"block_number"`
	BlockHash   string         `db:"block_hash"`
	TxHash      string         `db:"tx_hash"`
	TxIndex     int64          `db:"tx_index"`
	LogIndex    int64          `db:"log_index"`
	Address     string         `db:"address"`
	Topic0      sql.NullString `db:"topic0"`
	Topic1      sql.NullString `db:"topic1"`
	Topic2      sql.NullString `db:"topic2"`
	Topic3      sql.NullString `db:"topic3"`
	Data        string         `db:"data"`
}

func addrKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func nullAddr(a *common.Address) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: addrKey(*a), Valid: true}
}

// IndexBlock writes a block, its transactions and their logs in one
// database transaction.
func (s *SQLIndex) IndexBlock(ctx context.Context, rec *BlockRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrDatabaseClosed
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return newTransactionError("index_block", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	b := rec.Block
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO blocks (number, hash, parent_hash, time, tx_count)
		VALUES (:number, :hash, :parent_hash, :time, :tx_count)`,
		&blockRow{
			Number:     int64(b.Number),
			Hash:       b.Hash.Hex(),
			ParentHash: b.ParentHash.Hex(),
			Time:       int64(b.Time),
			TxCount:    len(rec.Receipts),
		})
	if err != nil {
		return newQueryError("index_block", "failed to insert block", err)
	}

	for i, receipt := range rec.Receipts {
		value := "0"
		if i < len(rec.Transactions) {
			value = rec.Transactions[i].ValueOrZero().String()
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO transactions (hash, block_number, tx_index, from_addr, to_addr, contract_address, value, status, revert_reason)
			VALUES (:hash, :block_number, :tx_index, :from_addr, :to_addr, :contract_address, :value, :status, :revert_reason)`,
			&TxRecord{
				Hash:            receipt.TxHash.Hex(),
				BlockNumber:     int64(receipt.BlockNumber),
				TxIndex:         int64(receipt.TransactionIndex),
				From:            addrKey(receipt.From),
				To:              nullAddr(receipt.To),
				ContractAddress: nullAddr(receipt.ContractAddress),
				Value:           value,
				Status:          int64(receipt.Status),
				RevertReason:    receipt.RevertReason,
			})
		if err != nil {
			return newQueryError("index_block", "failed to insert transaction", err)
		}

		for _, l := range receipt.Logs {
			row := &logRow{
				BlockNumber: int64(l.BlockNumber),
				BlockHash:   l.BlockHash.Hex(),
				TxHash:      l.TxHash.Hex(),
				TxIndex:     int64(l.TxIndex),
				LogIndex:    int64(l.Index),
				Address:     addrKey(l.Address),
				Data:        common.Bytes2Hex(l.Data),
			}
			topics := []*sql.NullString{&row.Topic0, &row.Topic1, &row.Topic2, &row.Topic3}
			for j, topic := range l.Topics {
				if j >= len(topics) {
					break
				}
				*topics[j] = sql.NullString{String: topic.Hex(), Valid: true}
			}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO logs (block_number, block_hash, tx_hash, tx_index, log_index, address, topic0, topic1, topic2, topic3, data)
				VALUES (:block_number, :block_hash, :tx_hash, :tx_index, :log_index, :address, :topic0, :topic1, :topic2, :topic3, :data)`,
				row)
			if err != nil {
				return newQueryError("index_block", "failed to insert log", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return newTransactionError("index_block", "commit failed", err)
	}
	return nil
}

// Logs returns matching logs ordered by block and log index.
func (s *SQLIndex) Logs(ctx context.Context, filter LogFilter) ([]*gethtypes.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	query := `SELECT block_number, block_hash, tx_hash, tx_index, log_index, address, topic0, topic1, topic2, topic3, data
		FROM logs WHERE block_number >= ? AND block_number <= ?`
	args := []interface{}{int64(filter.FromBlock), int64(filter.ToBlock)}

	if len(filter.Addresses) > 0 {
		addrs := make([]string, len(filter.Addresses))
		for i, a := range filter.Addresses {
			addrs[i] = addrKey(a)
		}
		query += " AND address IN (?)"
		args = append(args, addrs)
	}
	for i, set := range filter.Topics {
		if i > 3 {
			break
		}
		if len(set) == 0 {
			continue
		}
		hashes := make([]string, len(set))
		for j, h := range set {
			hashes[j] = h.Hex()
		}
		query += fmt.Sprintf(" AND topic%d IN (?)", i)
		args = append(args, hashes)
	}
	query += " ORDER BY block_number, log_index"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, newQueryError("logs", "failed to expand filter", err)
	}
	var rows []logRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, newQueryError("logs", "select failed", err)
	}

	logs := make([]*gethtypes.Log, 0, len(rows))
	for _, r := range rows {
		l := &gethtypes.Log{
			Address:     common.HexToAddress(r.Address),
			Data:        common.Hex2Bytes(r.Data),
			BlockNumber: uint64(r.BlockNumber),
			TxHash:      common.HexToHash(r.TxHash),
			TxIndex:     uint(r.TxIndex),
			BlockHash:   common.HexToHash(r.BlockHash),
			Index:       uint(r.LogIndex),
			Topics:      []common.Hash{},
		}
		for _, topic := range []sql.NullString{r.Topic0, r.Topic1, r.Topic2, r.Topic3} {
			if !topic.Valid {
				break
			}
			l.Topics = append(l.Topics, common.HexToHash(topic.String))
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// AccountTransactions returns the newest transactions sent by or to addr.
func (s *SQLIndex) AccountTransactions(ctx context.Context, addr common.Address, limit int) ([]TxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	key := addrKey(addr)
	var out []TxRecord
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT hash, block_number, tx_index, from_addr, to_addr, contract_address, value, status, revert_reason
		FROM transactions
		WHERE from_addr = ? OR to_addr = ? OR contract_address = ?
		ORDER BY block_number DESC, tx_index DESC
		LIMIT ?`), key, key, key, limit)
	if err != nil {
		return nil, newQueryError("account_transactions", "select failed", err)
	}
	return out, nil
}

// Transaction looks up one indexed transaction.
func (s *SQLIndex) Transaction(ctx context.Context, hash common.Hash) (*TxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	var rec TxRecord
	err := s.db.GetContext(ctx, &rec, s.db.Rebind(`
		SELECT hash, block_number, tx_index, from_addr, to_addr, contract_address, value, status, revert_reason
		FROM transactions WHERE hash = ?`), hash.Hex())
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, newQueryError("transaction", "select failed", err)
	}
	return &rec, nil
}

// Rewind drops indexed data at or above number.
func (s *SQLIndex) Rewind(ctx context.Context, number uint64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrDatabaseClosed
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return newTransactionError("rewind", "failed to begin transaction", err)
	}
	defer tx.Rollback()
	for _, table := range []string{"logs", "transactions"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE block_number >= ?"), int64(number)); err != nil {
			return newQueryError("rewind", "delete from "+table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM blocks WHERE number >= ?"), int64(number)); err != nil {
		return newQueryError("rewind", "delete from blocks", err)
	}
	if err := tx.Commit(); err != nil {
		return newTransactionError("rewind", "commit failed", err)
	}
	return nil
}

// Close closes the connection pool once running queries finish. Later calls
// fail with ErrDatabaseClosed.
func (s *SQLIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
