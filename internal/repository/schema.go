package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema bootstraps the tables. DDL is serialized across concurrent
// startups with an advisory lock.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	owner_kind TEXT NOT NULL,
	document_type TEXT NOT NULL,
	filename TEXT NOT NULL,
	file_ext TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	content_hash BYTEA,
	description TEXT NOT NULL DEFAULT '',
	uploaded_by TEXT NOT NULL DEFAULT '',
	upload_status TEXT NOT NULL,
	ocr_status TEXT NOT NULL,
	upload_error TEXT NOT NULL DEFAULT '',
	ocr_error TEXT NOT NULL DEFAULT '',
	validation_status TEXT NOT NULL DEFAULT 'not_reviewed',
	validation_notes TEXT NOT NULL DEFAULT '',
	reviewed_by TEXT NOT NULL DEFAULT '',
	reviewed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);
CREATE INDEX IF NOT EXISTS idx_documents_ocr_status ON documents(ocr_status);
CREATE INDEX IF NOT EXISTS idx_documents_validation ON documents(validation_status);

CREATE TABLE IF NOT EXISTS extraction_results (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	provider TEXT NOT NULL,
	raw_text TEXT NOT NULL DEFAULT '',
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidences JSONB NOT NULL DEFAULT '{}'::jsonb,
	overall_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence_level TEXT NOT NULL,
	requires_review BOOLEAN NOT NULL,
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	errors JSONB NOT NULL DEFAULT '[]'::jsonb,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	is_current BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_document ON extraction_results(document_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_results_current
	ON extraction_results(document_id) WHERE is_current;

CREATE TABLE IF NOT EXISTS document_status_history (
	id BIGSERIAL PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	track TEXT NOT NULL,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_document ON document_status_history(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
