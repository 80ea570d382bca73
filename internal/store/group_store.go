package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sablechat/sable/internal/domain"
)

// ErrGroupNotFound is returned when no group matches the lookup.
var ErrGroupNotFound = errors.New("group not found")

// GroupStore manages locally known chat groups.
type GroupStore struct {
	db *DB
}

// NewGroupStore creates a group store using the given database.
func NewGroupStore(db *DB) *GroupStore {
	return &GroupStore{db: db}
}

// Upsert inserts or updates a group. The group type is derived from the
// member count when not set.
func (s *GroupStore) Upsert(g *domain.Group) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if g.Type == "" {
		g.Type = domain.GroupTypeFor(len(g.Members))
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO groups (id, name, description, group_type, relays, members, admins, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   group_type = excluded.group_type,
		   relays = excluded.relays,
		   members = excluded.members,
		   admins = excluded.admins,
		   updated_at = excluded.updated_at`,
		g.ID, g.Name, g.Description, string(g.Type),
		encodeList(g.Relays), encodeList(g.Members), encodeList(g.Admins),
		g.CreatedAt.UTC().Format(time.DateTime), g.UpdatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("upserting group: %w", err)
	}
	return nil
}

// Get returns the group with the given id.
func (s *GroupStore) Get(id string) (*domain.Group, error) {
	var g domain.Group
	var groupType, relays, members, admins, createdAt, updatedAt string

	err := s.db.sql.QueryRow(
		`SELECT id, name, description, group_type, relays, members, admins, created_at, updated_at
		 FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &groupType, &relays, &members, &admins, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	g.Type = domain.GroupType(groupType)
	g.Relays = decodeList(relays)
	g.Members = decodeList(members)
	g.Admins = decodeList(admins)
	g.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	g.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return &g, nil
}

// List returns all groups, most recently updated first.
func (s *GroupStore) List() ([]*domain.Group, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, name, description, group_type, relays, members, admins, created_at, updated_at
		 FROM groups ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		var g domain.Group
		var groupType, relays, members, admins, createdAt, updatedAt string
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &groupType, &relays, &members, &admins, &createdAt, &updatedAt); err != nil {
			continue
		}
		g.Type = domain.GroupType(groupType)
		g.Relays = decodeList(relays)
		g.Members = decodeList(members)
		g.Admins = decodeList(admins)
		g.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		g.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// Relays returns the relay set of a group. Unknown groups yield an empty
// set rather than an error so callers can fall back to defaults.
func (s *GroupStore) Relays(id string) ([]string, error) {
	g, err := s.Get(id)
	if errors.Is(err, ErrGroupNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g.Relays, nil
}

// Delete removes a group.
func (s *GroupStore) Delete(id string) error {
	_, err := s.db.sql.Exec(`DELETE FROM groups WHERE id = ?`, id)
	return err
}

func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func decodeList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var list []string
	_ = json.Unmarshal([]byte(s), &list)
	return list
}
