package store

const schemaSQL = `
-- Saved recognitions
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    sections JSON NOT NULL,
    scanned_found INTEGER NOT NULL DEFAULT 0,
    doc_type TEXT NOT NULL DEFAULT 'Other',
    mean_confidence INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
`
