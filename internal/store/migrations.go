package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create_accounts",
		SQL: `
			CREATE TABLE accounts (
				pubkey TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				picture TEXT NOT NULL DEFAULT '',
				active INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				last_used_at TEXT NOT NULL
			);
		`,
	},
	{
		Version: 2,
		Name:    "create_groups_contacts",
		SQL: `
			CREATE TABLE groups (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				group_type TEXT NOT NULL DEFAULT 'group',
				relays TEXT NOT NULL DEFAULT '[]',
				members TEXT NOT NULL DEFAULT '[]',
				admins TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE contacts (
				pubkey TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				display_name TEXT NOT NULL DEFAULT '',
				picture TEXT NOT NULL DEFAULT '',
				inbox_relays TEXT NOT NULL DEFAULT '[]',
				relays TEXT NOT NULL DEFAULT '[]',
				updated_at TEXT NOT NULL
			);
		`,
	},
	{
		// Transcripts carry no foreign key to groups: relays can deliver
		// messages for groups the store has not seen yet.
		Version: 3,
		Name:    "create_messages",
		SQL: `
			CREATE TABLE messages (
				id TEXT PRIMARY KEY,
				group_id TEXT NOT NULL,
				author TEXT NOT NULL,
				kind INTEGER NOT NULL,
				tags TEXT NOT NULL DEFAULT '[]',
				content TEXT NOT NULL,
				created_at TEXT NOT NULL
			);

			CREATE INDEX idx_messages_transcript ON messages(group_id, created_at, id);
			CREATE INDEX idx_messages_author ON messages(author);
		`,
	},
	{
		Version: 4,
		Name:    "create_messages_fts",
		SQL: `
			CREATE VIRTUAL TABLE messages_fts USING fts5(
				content,
				content='messages',
				content_rowid='rowid'
			);

			CREATE TRIGGER messages_ai AFTER INSERT ON messages BEGIN
				INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
			END;

			CREATE TRIGGER messages_ad AFTER DELETE ON messages BEGIN
				INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
			END;

			CREATE TRIGGER messages_au AFTER UPDATE ON messages BEGIN
				INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
				INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
			END;
		`,
	},
}
