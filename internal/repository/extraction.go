package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
)

// ExtractionResultRepository persists normalized extraction results. A
// document has at most one current result; inserting a new one supersedes the
// prior atomically.
type ExtractionResultRepository interface {
	InsertCurrent(ctx context.Context, res *entity.ExtractionResult) error
	GetCurrentByDocument(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error)
}

type extractionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewExtractionResultRepository(db *sql.DB, log *slog.Logger) ExtractionResultRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log}
}

func (r *extractionRepo) InsertCurrent(ctx context.Context, res *entity.ExtractionResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}

	fields, err := json.Marshal(orEmptyMap(res.Fields))
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	confidences, err := json.Marshal(orEmptyConf(res.Confidences))
	if err != nil {
		return fmt.Errorf("marshal confidences: %w", err)
	}
	warnings, err := json.Marshal(orEmptySlice(res.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	errs, err := json.Marshal(orEmptySlice(res.Errors))
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// supersede, never merge
	if _, err := tx.ExecContext(ctx, `
UPDATE extraction_results SET is_current = FALSE WHERE document_id = $1 AND is_current
`, res.DocumentID); err != nil {
		r.log.Error("supersede prior result failed", "document_id", res.DocumentID, "err", err)
		return fmt.Errorf("supersede prior result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO extraction_results (
	id, document_id, document_type, provider, raw_text, fields, confidences,
	overall_confidence, confidence_level, requires_review, warnings, errors,
	duration_ms, is_current, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,TRUE,$14)
`,
		res.ID, res.DocumentID, string(res.DocumentType), res.Provider, res.RawText,
		fields, confidences, res.OverallConfidence, string(res.ConfidenceLevel),
		res.RequiresReview, warnings, errs, res.Duration.Milliseconds(), res.CreatedAt,
	); err != nil {
		r.log.Error("insert extraction result failed", "document_id", res.DocumentID, "err", err)
		return fmt.Errorf("insert extraction result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	r.log.Info("extraction result stored",
		"document_id", res.DocumentID,
		"result_id", res.ID,
		"provider", res.Provider,
		"overall_confidence", res.OverallConfidence,
		"confidence_level", res.ConfidenceLevel,
		"requires_review", res.RequiresReview,
	)
	return nil
}

func (r *extractionRepo) GetCurrentByDocument(ctx context.Context, documentID uuid.UUID) (*entity.ExtractionResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, document_type, provider, raw_text, fields, confidences,
	overall_confidence, confidence_level, requires_review, warnings, errors,
	duration_ms, created_at
FROM extraction_results
WHERE document_id = $1 AND is_current
`, documentID)

	var (
		res                 entity.ExtractionResult
		docType, level      string
		fields, confidences []byte
		warnings, errs      []byte
		durationMS          int64
	)
	err := row.Scan(
		&res.ID, &res.DocumentID, &docType, &res.Provider, &res.RawText,
		&fields, &confidences, &res.OverallConfidence, &level,
		&res.RequiresReview, &warnings, &errs, &durationMS, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("extraction result for document %s: %w", documentID, common.ErrNotFound)
		}
		r.log.Error("get current result failed", "document_id", documentID, "err", err)
		return nil, fmt.Errorf("scan extraction result: %w", err)
	}

	res.DocumentType = constants.DocumentType(docType)
	res.ConfidenceLevel = constants.ConfidenceLevel(level)
	res.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal(fields, &res.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := json.Unmarshal(confidences, &res.Confidences); err != nil {
		return nil, fmt.Errorf("unmarshal confidences: %w", err)
	}
	if err := json.Unmarshal(warnings, &res.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if err := json.Unmarshal(errs, &res.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return &res, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyConf(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
