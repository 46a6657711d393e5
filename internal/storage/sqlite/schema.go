package sqlite

// Schema is the SQLite schema for the record store. Applied on open; all
// statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	id         TEXT PRIMARY KEY,
	namespace  TEXT NOT NULL DEFAULT '/',
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_records_namespace
	ON memory_records(namespace, created_at DESC);
`
