package postgres

// Schema is the PostgreSQL schema for the record store. All statements are
// idempotent; the pgvector column is added separately when the extension is
// available.
const Schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	id         TEXT PRIMARY KEY,
	namespace  TEXT NOT NULL DEFAULT '/',
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memory_records_namespace
	ON memory_records(namespace, created_at DESC);
`

// vectorSchema adds the embedding column once the pgvector extension is
// confirmed present. Dimension matches common embedding models; stored
// vectors of other sizes fail the insert and are logged, not fatal.
const vectorSchema = `
ALTER TABLE memory_records
	ADD COLUMN IF NOT EXISTS embedding_vec vector(768);

ALTER TABLE memory_records
	ADD COLUMN IF NOT EXISTS embedding_model TEXT;
`
