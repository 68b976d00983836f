package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/lifecycle"
)

// DocumentRepository persists documents, their two status tracks and the
// per-transition audit trail.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByOwnerAndHash(ctx context.Context, ownerID uuid.UUID, hash []byte) (*entity.Document, error)
	SetUploadStatus(ctx context.Context, id uuid.UUID, from, to constants.UploadStatus, detail string) error
	SetOCRStatus(ctx context.Context, id uuid.UUID, from, to constants.OCRStatus, detail string) error
	ResetForReupload(ctx context.Context, doc *entity.Document) error
	UpdateValidation(ctx context.Context, id uuid.UUID, status constants.ValidationStatus, notes, reviewer string, at time.Time) error
	ListRequiringReview(ctx context.Context) ([]entity.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDocumentRepository(db *sql.DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

const documentColumns = `id, owner_id, owner_kind, document_type, filename, file_ext, file_size,
	mime_type, storage_path, content_hash, description, uploaded_by,
	upload_status, ocr_status, upload_error, ocr_error,
	validation_status, validation_notes, reviewed_by, reviewed_at,
	created_at, updated_at`

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now
	if doc.ValidationStatus == "" {
		doc.ValidationStatus = constants.ValidationNotReviewed
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
`,
		doc.ID, doc.OwnerID, string(doc.OwnerKind), string(doc.DocumentType),
		doc.Filename, doc.FileExt, doc.FileSize, doc.MIMEType, doc.StoragePath,
		doc.ContentHash, doc.Description, doc.UploadedBy,
		string(doc.UploadStatus), string(doc.OCRStatus), doc.UploadError, doc.OCRError,
		string(doc.ValidationStatus), doc.ValidationNotes, doc.ReviewedBy, doc.ReviewedAt,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		r.log.Error("document create failed", "document_id", doc.ID, "err", err)
		return fmt.Errorf("insert document: %w", err)
	}

	if err := insertHistory(ctx, tx, doc.ID, lifecycle.TrackUpload, "", string(doc.UploadStatus), "created"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	r.log.Info("document created", "document_id", doc.ID, "owner_id", doc.OwnerID, "document_type", doc.DocumentType)
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
		}
		r.log.Error("document get failed", "document_id", id, "err", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByOwnerAndHash(ctx context.Context, ownerID uuid.UUID, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+` FROM documents
WHERE owner_id = $1 AND content_hash = $2 AND upload_status = $3
ORDER BY created_at DESC LIMIT 1
`, ownerID, hash, string(constants.UploadCompleted))
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("owner %s hash lookup: %w", ownerID, common.ErrNotFound)
		}
		return nil, err
	}
	return doc, nil
}

// SetUploadStatus applies a guarded upload-track transition. The conditional
// UPDATE makes the transition atomic: a concurrent writer that already moved
// the document away from `from` turns this into ErrConflict.
func (r *documentRepo) SetUploadStatus(ctx context.Context, id uuid.UUID, from, to constants.UploadStatus, detail string) error {
	if !lifecycle.UploadAllowed(from, to) {
		return fmt.Errorf("upload transition %s -> %s: %w", from, to, common.ErrConflict)
	}
	return r.transition(ctx, id, lifecycle.TrackUpload, string(from), string(to), detail, `
UPDATE documents SET upload_status = $2, upload_error = $3, updated_at = $4
WHERE id = $1 AND upload_status = $5
`)
}

// SetOCRStatus applies a guarded OCR-track transition.
func (r *documentRepo) SetOCRStatus(ctx context.Context, id uuid.UUID, from, to constants.OCRStatus, detail string) error {
	if !lifecycle.OCRAllowed(from, to) {
		return fmt.Errorf("ocr transition %s -> %s: %w", from, to, common.ErrConflict)
	}
	return r.transition(ctx, id, lifecycle.TrackOCR, string(from), string(to), detail, `
UPDATE documents SET ocr_status = $2, ocr_error = $3, updated_at = $4
WHERE id = $1 AND ocr_status = $5
`)
}

func (r *documentRepo) transition(ctx context.Context, id uuid.UUID, track, from, to, detail, query string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, id, to, detail, time.Now().UTC(), from)
	if err != nil {
		r.log.Error("status transition failed", "document_id", id, "track", track, "to", to, "err", err)
		return fmt.Errorf("update %s status: %w", track, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s not in %s state %q: %w", id, track, from, common.ErrConflict)
	}

	if err := insertHistory(ctx, tx, id, track, from, to, detail); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	r.log.Info("status transition", "document_id", id, "track", track, "from", from, "to", to)
	return nil
}

// ResetForReupload points the document at a fresh file: both tracks return to
// pending, error reasons clear, and any prior extraction result is removed in
// the same transaction so a stale result can never outlive its file.
func (r *documentRepo) ResetForReupload(ctx context.Context, doc *entity.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
UPDATE documents SET
	filename = $2, file_ext = $3, file_size = $4, mime_type = $5,
	storage_path = $6, content_hash = $7,
	upload_status = $8, ocr_status = $9, upload_error = '', ocr_error = '',
	updated_at = $10
WHERE id = $1 AND ocr_status <> $11
`,
		doc.ID, doc.Filename, doc.FileExt, doc.FileSize, doc.MIMEType,
		doc.StoragePath, doc.ContentHash,
		string(constants.UploadPending), string(constants.OCRPending),
		now, string(constants.OCRProcessing),
	)
	if err != nil {
		r.log.Error("reupload reset failed", "document_id", doc.ID, "err", err)
		return fmt.Errorf("reset document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s missing or extraction in flight: %w", doc.ID, common.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM extraction_results WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("invalidate extraction results: %w", err)
	}
	if err := insertHistory(ctx, tx, doc.ID, lifecycle.TrackUpload, "", string(constants.UploadPending), "re-upload"); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, doc.ID, lifecycle.TrackOCR, "", string(constants.OCRPending), "re-upload"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	r.log.Info("document reset for re-upload", "document_id", doc.ID)
	return nil
}

func (r *documentRepo) UpdateValidation(ctx context.Context, id uuid.UUID, status constants.ValidationStatus, notes, reviewer string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET validation_status = $2, validation_notes = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $6
WHERE id = $1
`, id, string(status), notes, reviewer, at.UTC(), time.Now().UTC())
	if err != nil {
		r.log.Error("validation update failed", "document_id", id, "err", err)
		return fmt.Errorf("update validation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("validation updated", "document_id", id, "validation_status", status, "reviewed_by", reviewer)
	return nil
}

// ListRequiringReview returns documents whose current extraction needs a human
// and that a reviewer has not yet settled.
func (r *documentRepo) ListRequiringReview(ctx context.Context) ([]entity.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+qualified(documentColumns, "d")+`
FROM documents d
JOIN extraction_results er ON er.document_id = d.id AND er.is_current
WHERE er.requires_review
  AND d.validation_status IN ($1, $2)
ORDER BY d.updated_at DESC
`, string(constants.ValidationNotReviewed), string(constants.ValidationUnderReview))
	if err != nil {
		r.log.Error("review queue query failed", "err", err)
		return nil, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Delete removes the document row. History and extraction rows follow via
// ON DELETE CASCADE; the caller is responsible for the blob.
func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		r.log.Error("document delete failed", "document_id", id, "err", err)
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	r.log.Info("document deleted", "document_id", id)
	return nil
}

// qualified prefixes each column in a comma-separated list with a table alias.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc                 entity.Document
		ownerKind, docType  string
		upStatus, ocrStatus string
		valStatus           string
		reviewedAt          sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.OwnerID, &ownerKind, &docType,
		&doc.Filename, &doc.FileExt, &doc.FileSize, &doc.MIMEType, &doc.StoragePath,
		&doc.ContentHash, &doc.Description, &doc.UploadedBy,
		&upStatus, &ocrStatus, &doc.UploadError, &doc.OCRError,
		&valStatus, &doc.ValidationNotes, &doc.ReviewedBy, &reviewedAt,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.OwnerKind = constants.OwnerKind(ownerKind)
	doc.DocumentType = constants.DocumentType(docType)
	doc.UploadStatus = constants.UploadStatus(upStatus)
	doc.OCRStatus = constants.OCRStatus(ocrStatus)
	doc.ValidationStatus = constants.ValidationStatus(valStatus)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		doc.ReviewedAt = &t
	}
	return &doc, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertHistory(ctx context.Context, tx execer, id uuid.UUID, track, from, to, detail string) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO document_status_history (document_id, track, from_status, to_status, detail, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, id, track, from, to, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}
