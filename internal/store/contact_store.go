package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sablechat/sable/internal/domain"
)

// ErrContactNotFound is returned when no contact matches the lookup.
var ErrContactNotFound = errors.New("contact not found")

// ContactStore manages locally cached profiles of other users.
type ContactStore struct {
	db *DB
}

// NewContactStore creates a contact store using the given database.
func NewContactStore(db *DB) *ContactStore {
	return &ContactStore{db: db}
}

// Upsert inserts or updates a contact profile.
func (s *ContactStore) Upsert(c *domain.Contact) error {
	_, err := s.db.sql.Exec(
		`INSERT INTO contacts (pubkey, name, display_name, picture, inbox_relays, relays, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pubkey) DO UPDATE SET
		   name = excluded.name,
		   display_name = excluded.display_name,
		   picture = excluded.picture,
		   inbox_relays = excluded.inbox_relays,
		   relays = excluded.relays,
		   updated_at = excluded.updated_at`,
		c.Pubkey, c.Name, c.DisplayName, c.Picture,
		encodeList(c.InboxRelays), encodeList(c.Relays),
		time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("upserting contact: %w", err)
	}
	return nil
}

// Get returns the contact with the given pubkey.
func (s *ContactStore) Get(pubkey string) (*domain.Contact, error) {
	var c domain.Contact
	var inboxRelays, relays string

	err := s.db.sql.QueryRow(
		`SELECT pubkey, name, display_name, picture, inbox_relays, relays
		 FROM contacts WHERE pubkey = ?`, pubkey,
	).Scan(&c.Pubkey, &c.Name, &c.DisplayName, &c.Picture, &inboxRelays, &relays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}

	c.InboxRelays = decodeList(inboxRelays)
	c.Relays = decodeList(relays)
	return &c, nil
}

// List returns all contacts ordered by pubkey.
func (s *ContactStore) List() ([]*domain.Contact, error) {
	rows, err := s.db.sql.Query(
		`SELECT pubkey, name, display_name, picture, inbox_relays, relays
		 FROM contacts ORDER BY pubkey`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		var c domain.Contact
		var inboxRelays, relays string
		if err := rows.Scan(&c.Pubkey, &c.Name, &c.DisplayName, &c.Picture, &inboxRelays, &relays); err != nil {
			continue
		}
		c.InboxRelays = decodeList(inboxRelays)
		c.Relays = decodeList(relays)
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// Delete removes a contact.
func (s *ContactStore) Delete(pubkey string) error {
	_, err := s.db.sql.Exec(`DELETE FROM contacts WHERE pubkey = ?`, pubkey)
	return err
}
