package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sablechat/sable/internal/domain"
)

// ErrMessageNotFound is returned when no message matches the lookup.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore manages group transcripts with full-text search via
// SQLite FTS5. Messages are deduplicated by id: appending an already
// stored message is a no-op.
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a message store using the given database.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append stores a message, reporting whether it was new. Relays replay
// history on reconnect, so duplicate ids are expected and ignored.
func (s *MessageStore) Append(msg *domain.Message) (bool, error) {
	ts := msg.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := s.db.sql.Exec(
		`INSERT OR IGNORE INTO messages (id, group_id, author, kind, tags, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.GroupID, msg.Author, int(msg.Kind),
		encodeTags(msg.Tags), msg.Content, ts.UTC().Format(time.DateTime),
	)
	if err != nil {
		return false, fmt.Errorf("inserting message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the message with the given id.
func (s *MessageStore) Get(id string) (*domain.Message, error) {
	row := s.db.sql.QueryRow(
		`SELECT id, group_id, author, kind, tags, content, created_at
		 FROM messages WHERE id = ?`, id,
	)

	var msg domain.Message
	var kind int
	var tags, createdAt string
	err := row.Scan(&msg.ID, &msg.GroupID, &msg.Author, &kind, &tags, &msg.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	msg.Kind = domain.Kind(kind)
	msg.Tags = decodeTags(tags)
	msg.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return &msg, nil
}

// List returns the most recent messages of a group, oldest first.
// Timestamps have second resolution, so the id breaks ties to keep the
// order stable across clients. A limit of 0 defaults to 200.
func (s *MessageStore) List(groupID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.db.sql.Query(
		`SELECT id, group_id, author, kind, tags, content, created_at FROM (
			SELECT id, group_id, author, kind, tags, content, created_at
			FROM messages WHERE group_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		 ) ORDER BY created_at, id`,
		groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Latest returns the newest message of a group.
func (s *MessageStore) Latest(groupID string) (*domain.Message, error) {
	msgs, err := s.List(groupID, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrMessageNotFound
	}
	return msgs[len(msgs)-1], nil
}

// Search finds messages in a group matching the query using FTS5.
// Results are ranked by relevance. A limit of 0 defaults to 20.
func (s *MessageStore) Search(groupID, query string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.sql.Query(
		`SELECT m.id, m.group_id, m.author, m.kind, m.tags, m.content, m.created_at
		 FROM messages_fts
		 JOIN messages m ON m.rowid = messages_fts.rowid
		 WHERE messages_fts MATCH ?
		   AND m.group_id = ?
		 ORDER BY rank
		 LIMIT ?`,
		query, groupID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Delete removes a message from the transcript.
func (s *MessageStore) Delete(id string) error {
	_, err := s.db.sql.Exec(`DELETE FROM messages WHERE id = ?`, id)
	return err
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var msgs []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var kind int
		var tags, createdAt string

		if err := rows.Scan(&msg.ID, &msg.GroupID, &msg.Author, &kind, &tags, &msg.Content, &createdAt); err != nil {
			continue
		}

		msg.Kind = domain.Kind(kind)
		msg.Tags = decodeTags(tags)
		msg.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func encodeTags(tags []domain.Tag) string {
	if tags == nil {
		tags = []domain.Tag{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func decodeTags(s string) []domain.Tag {
	if s == "" || s == "[]" {
		return nil
	}
	var tags []domain.Tag
	_ = json.Unmarshal([]byte(s), &tags)
	return tags
}
