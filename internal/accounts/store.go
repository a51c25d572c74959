package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// DriverName is the database/sql driver used by the store.
const DriverName = "sqlite3"

// ErrNotFound is returned when an account does not exist.
var ErrNotFound = errors.New("account not found")

// Store is a SQLite-backed account store.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open account database: %w", err)
	}
	// A single connection keeps ":memory:" databases intact and serializes writers.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs the schema migrations.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:  sqlx.NewDb(db, DriverName),
		now: time.Now,
	}
	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run account migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a new account at the end of the enumeration order, or replaces
// the token of an existing one. An empty label keeps the existing label.
func (s *Store) Add(ctx context.Context, id, label string, token *oauth2.Token) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	encoded, err := encodeToken(token)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, label, token, position, created_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM accounts), ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			label = CASE WHEN excluded.label = '' THEN accounts.label ELSE excluded.label END
	`, id, label, encoded, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to add account %s: %w", id, err)
	}
	return nil
}

// List returns all accounts in enumeration order.
func (s *Store) List(ctx context.Context) ([]Account, error) {
	var rows []accountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, label, token, position, created_at
		FROM accounts
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	res := make([]Account, len(rows))
	for i, r := range rows {
		res[i] = r.Convert()
	}
	return res, nil
}

// Get returns one account.
func (s *Store) Get(ctx context.Context, id string) (*Account, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	a := row.Convert()
	return &a, nil
}

func (s *Store) get(ctx context.Context, id string) (*accountRow, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, label, token, position, created_at
		FROM accounts
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &row, nil
}

// Remove deletes an account and its token.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove account %s: %w", id, err)
	}
	return checkAffected(res, id)
}

// Token returns the stored OAuth token of an account.
func (s *Store) Token(ctx context.Context, id string) (*oauth2.Token, error) {
	row, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeToken(row.Token)
}

// SaveToken replaces the token of an existing account.
func (s *Store) SaveToken(ctx context.Context, id string, token *oauth2.Token) error {
	encoded, err := encodeToken(token)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET token = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("failed to save token for account %s: %w", id, err)
	}
	return checkAffected(res, id)
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
