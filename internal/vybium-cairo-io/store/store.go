// Package store keeps decoded output records in SQLite, keyed by the
// transaction hash, so block metadata can be attached after the fact.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/output"
)

// ErrRecordNotFound indicates no record exists for the transaction hash
var ErrRecordNotFound = errors.New("record not found")

// Store is a SQLite backed record store
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, path, err, "opening database")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, core.WrapError(core.KindIOFailure, path, err, "setting busy timeout")
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS records (
		tx_hash TEXT PRIMARY KEY,
		program TEXT NOT NULL,
		data JSON NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, core.WrapError(core.KindIOFailure, path, err, "creating table")
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path
func (s *Store) Path() string {
	return s.path
}

// Put saves a record, replacing any record with the same transaction hash
func Put[P any](ctx context.Context, s *Store, program string, rec *output.Record[P]) error {
	data, err := output.MarshalJSON(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO records (tx_hash, program, data) VALUES (?, ?, json(?))",
		string(rec.TxHash), program, string(data),
	)
	if err != nil {
		return core.WrapError(core.KindIOFailure, "tx_hash", err, "saving record %s", rec.TxHash)
	}
	return nil
}

// Get loads the record stored under txHash
func Get[P any](ctx context.Context, s *Store, txHash string) (*output.Record[P], string, error) {
	var program, data string
	err := s.db.QueryRowContext(ctx,
		"SELECT program, data FROM records WHERE tx_hash = ?", txHash,
	).Scan(&program, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("%s: %w", txHash, ErrRecordNotFound)
		}
		return nil, "", core.WrapError(core.KindIOFailure, "tx_hash", err, "querying record %s", txHash)
	}

	var rec output.Record[P]
	if err := output.UnmarshalJSON([]byte(data), &rec); err != nil {
		return nil, "", core.WrapError(core.KindInvalidOutputFormat, "data", err, "parsing record %s", txHash)
	}
	return &rec, program, nil
}

// SetBlock fills in the block number and time of a stored record. SQLite
// integers are signed, so values above math.MaxInt64 are rejected.
func (s *Store) SetBlock(ctx context.Context, txHash string, number, time uint64) error {
	if number > math.MaxInt64 {
		return core.NewError(core.KindInvalidArgument, "block_number",
			"%d does not fit a signed 64-bit column", number)
	}
	if time > math.MaxInt64 {
		return core.NewError(core.KindInvalidArgument, "block_time",
			"%d does not fit a signed 64-bit column", time)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE records SET data = json_set(data, '$.block_number', ?, '$.block_time', ?) WHERE tx_hash = ?",
		int64(number), int64(time), txHash,
	)
	if err != nil {
		return core.WrapError(core.KindIOFailure, "tx_hash", err, "updating record %s", txHash)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.WrapError(core.KindIOFailure, "tx_hash", err, "updating record %s", txHash)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", txHash, ErrRecordNotFound)
	}
	return nil
}

// List returns the stored transaction hashes in order
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tx_hash FROM records ORDER BY tx_hash")
	if err != nil {
		return nil, core.WrapError(core.KindIOFailure, "", err, "listing records")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, core.WrapError(core.KindIOFailure, "", err, "listing records")
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.KindIOFailure, "", err, "listing records")
	}
	return out, nil
}
