package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sablechat/sable/internal/domain"
)

// ErrAccountNotFound is returned when no account matches the lookup.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore manages local user identities.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates an account store using the given database.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create inserts a new account. The first account ever created becomes
// the active one automatically.
func (s *AccountStore) Create(acct *domain.Account) error {
	now := time.Now()
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = now
	}
	if acct.LastUsedAt.IsZero() {
		acct.LastUsedAt = now
	}

	var count int
	if err := s.db.sql.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("counting accounts: %w", err)
	}
	active := 0
	if count == 0 {
		active = 1
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO accounts (pubkey, name, picture, active, created_at, last_used_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		acct.Pubkey, acct.Name, acct.Picture, active,
		acct.CreatedAt.UTC().Format(time.DateTime),
		acct.LastUsedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// Get returns the account with the given pubkey.
func (s *AccountStore) Get(pubkey string) (*domain.Account, error) {
	return s.scanOne(s.db.sql.QueryRow(
		`SELECT pubkey, name, picture, created_at, last_used_at
		 FROM accounts WHERE pubkey = ?`, pubkey,
	))
}

// Active returns the account currently in use.
func (s *AccountStore) Active() (*domain.Account, error) {
	return s.scanOne(s.db.sql.QueryRow(
		`SELECT pubkey, name, picture, created_at, last_used_at
		 FROM accounts WHERE active = 1`,
	))
}

// SetActive marks the given account as the one in use and touches its
// last-used timestamp. Any previously active account is deactivated.
func (s *AccountStore) SetActive(pubkey string) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	res, err := tx.Exec(
		`UPDATE accounts SET active = 1, last_used_at = ? WHERE pubkey = ?`,
		time.Now().UTC().Format(time.DateTime), pubkey,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("activating account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return ErrAccountNotFound
	}

	if _, err := tx.Exec(`UPDATE accounts SET active = 0 WHERE pubkey != ?`, pubkey); err != nil {
		tx.Rollback()
		return fmt.Errorf("deactivating accounts: %w", err)
	}

	return tx.Commit()
}

// List returns all accounts, oldest first.
func (s *AccountStore) List() ([]*domain.Account, error) {
	rows, err := s.db.sql.Query(
		`SELECT pubkey, name, picture, created_at, last_used_at
		 FROM accounts ORDER BY created_at, pubkey`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accts []*domain.Account
	for rows.Next() {
		var acct domain.Account
		var createdAt, lastUsedAt string
		if err := rows.Scan(&acct.Pubkey, &acct.Name, &acct.Picture, &createdAt, &lastUsedAt); err != nil {
			continue
		}
		acct.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		acct.LastUsedAt, _ = time.Parse(time.DateTime, lastUsedAt)
		accts = append(accts, &acct)
	}
	return accts, rows.Err()
}

// Delete removes an account.
func (s *AccountStore) Delete(pubkey string) error {
	_, err := s.db.sql.Exec(`DELETE FROM accounts WHERE pubkey = ?`, pubkey)
	return err
}

func (s *AccountStore) scanOne(row *sql.Row) (*domain.Account, error) {
	var acct domain.Account
	var createdAt, lastUsedAt string
	err := row.Scan(&acct.Pubkey, &acct.Name, &acct.Picture, &createdAt, &lastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	acct.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	acct.LastUsedAt, _ = time.Parse(time.DateTime, lastUsedAt)
	return &acct, nil
}
