package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteState keeps the account key/value set in a SQLite file. It implements
// sdk.State, sdk.Batcher and sdk.Scanner, so a committed transaction lands in one
// SQL transaction.
type SQLiteState struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath. ":memory:" works for tests.
func Open(dbPath string) (*SQLiteState, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &SQLiteState{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}

func (s *SQLiteState) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		key BLOB PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteState) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM accounts WHERE key = ?", []byte(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteState) Set(key string, value []byte) error {
	return s.Apply(map[string][]byte{key: value}, nil)
}

func (s *SQLiteState) Delete(key string) error {
	return s.Apply(nil, []string{key})
}

// Apply writes the batch in one SQL transaction.
func (s *SQLiteState) Apply(sets map[string][]byte, deletes []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.Prepare(`
		INSERT INTO accounts (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer upsert.Close()
	for k, v := range sets {
		if _, err := upsert.Exec([]byte(k), v); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
	}
	for _, k := range deletes {
		if _, err := tx.Exec("DELETE FROM accounts WHERE key = ?", []byte(k)); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	return tx.Commit()
}

// Keys lists keys starting with prefix in byte order.
func (s *SQLiteState) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT key FROM accounts WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), []byte(prefix),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var k []byte
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, string(k))
	}
	return keys, rows.Err()
}
