// Package service implements the operations exposed to the onboarding forms
// and the back-office: upload intake, document lookup, reprocessing,
// reviewer updates and the review queue.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/metrics"
	"github.com/agrolink-ro/supplier-docs/internal/pipeline"
	"github.com/agrolink-ro/supplier-docs/internal/repository"
	"github.com/agrolink-ro/supplier-docs/internal/storage"
)

// UploadRequest carries one file submission.
type UploadRequest struct {
	OwnerID      uuid.UUID
	OwnerKind    constants.OwnerKind
	DocumentType constants.DocumentType
	Filename     string
	MIMEType     string
	Size         int64
	Description  string
	UploadedBy   string
	Data         io.Reader
}

// DocumentWithResult pairs a document with its current extraction result, if
// one exists.
type DocumentWithResult struct {
	Document     entity.Document          `json:"document"`
	Result       *entity.ExtractionResult `json:"extraction_result,omitempty"`
	Deduplicated bool                     `json:"deduplicated,omitempty"`
}

type DocumentService struct {
	docs     repository.DocumentRepository
	results  repository.ExtractionResultRepository
	store    storage.ObjectStorage
	queue    pipeline.Queue
	metrics  *metrics.Metrics
	logger   *slog.Logger
	maxBytes int64
}

func NewDocumentService(
	docs repository.DocumentRepository,
	results repository.ExtractionResultRepository,
	store storage.ObjectStorage,
	queue pipeline.Queue,
	m *metrics.Metrics,
	logger *slog.Logger,
	maxBytes int64,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	return &DocumentService{
		docs:     docs,
		results:  results,
		store:    store,
		queue:    queue,
		metrics:  m,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Upload validates and stores one file, creates the document row and hands
// the completed upload to the extraction queue exactly once. All validation
// happens before any row is created or byte written; storage failures are
// captured onto the upload track, not returned.
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest) (*DocumentWithResult, error) {
	ext, err := s.validate(&req)
	if err != nil {
		s.metrics.ObserveUpload("rejected")
		return nil, err
	}

	fileBytes, err := io.ReadAll(io.LimitReader(req.Data, s.maxBytes+1))
	if err != nil {
		s.metrics.ObserveUpload("rejected")
		return nil, common.ValidationErrorf("read upload: %v", err)
	}
	if int64(len(fileBytes)) > s.maxBytes {
		s.metrics.ObserveUpload("rejected")
		return nil, common.ValidationErrorf("file exceeds maximum size of %d bytes", s.maxBytes)
	}

	hash := sha256.Sum256(fileBytes)
	if existing, err := s.docs.GetByOwnerAndHash(ctx, req.OwnerID, hash[:]); err == nil {
		s.logger.Info("upload deduplicated", "owner_id", req.OwnerID, "document_id", existing.ID)
		s.metrics.ObserveUpload("deduplicated")
		return s.withResult(ctx, existing, true), nil
	}

	now := time.Now().UTC()
	doc := &entity.Document{
		ID:           uuid.New(),
		OwnerID:      req.OwnerID,
		OwnerKind:    req.OwnerKind,
		DocumentType: req.DocumentType,
		Filename:     req.Filename,
		FileExt:      ext,
		FileSize:     int64(len(fileBytes)),
		MIMEType:     req.MIMEType,
		StoragePath:  storage.ObjectKey(req.OwnerID, req.DocumentType, now, ext),
		ContentHash:  hash[:],
		Description:  req.Description,
		UploadedBy:   req.UploadedBy,
		UploadStatus: constants.UploadPending,
		OCRStatus:    constants.OCRPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.metrics.ObserveUpload("failed")
		return nil, err
	}

	return s.storeAndEnqueue(ctx, doc, fileBytes)
}

// Reupload replaces the file behind an existing document. The prior blob and
// extraction result are invalidated first; the OCR result of a document
// always corresponds to the file currently at its storage path.
func (s *DocumentService) Reupload(ctx context.Context, documentID uuid.UUID, req UploadRequest) (*DocumentWithResult, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	req.OwnerID = doc.OwnerID
	req.OwnerKind = doc.OwnerKind
	if req.DocumentType == "" {
		req.DocumentType = doc.DocumentType
	}
	ext, err := s.validate(&req)
	if err != nil {
		s.metrics.ObserveUpload("rejected")
		return nil, err
	}
	if doc.OCRStatus == constants.OCRProcessing {
		return nil, fmt.Errorf("document %s has an extraction in flight: %w", documentID, common.ErrConflict)
	}

	fileBytes, err := io.ReadAll(io.LimitReader(req.Data, s.maxBytes+1))
	if err != nil {
		s.metrics.ObserveUpload("rejected")
		return nil, common.ValidationErrorf("read upload: %v", err)
	}
	if int64(len(fileBytes)) > s.maxBytes {
		s.metrics.ObserveUpload("rejected")
		return nil, common.ValidationErrorf("file exceeds maximum size of %d bytes", s.maxBytes)
	}

	oldPath := doc.StoragePath
	now := time.Now().UTC()
	hash := sha256.Sum256(fileBytes)

	doc.Filename = req.Filename
	doc.FileExt = ext
	doc.FileSize = int64(len(fileBytes))
	doc.MIMEType = req.MIMEType
	doc.DocumentType = req.DocumentType
	doc.StoragePath = storage.ObjectKey(doc.OwnerID, req.DocumentType, now, ext)
	doc.ContentHash = hash[:]

	if err := s.docs.ResetForReupload(ctx, doc); err != nil {
		s.metrics.ObserveUpload("failed")
		return nil, err
	}
	if oldPath != "" && oldPath != doc.StoragePath {
		if err := s.store.Delete(ctx, oldPath); err != nil {
			s.logger.Warn("stale blob delete failed", "document_id", doc.ID, "path", oldPath, "error", err)
		}
	}
	doc.UploadStatus = constants.UploadPending
	doc.OCRStatus = constants.OCRPending

	return s.storeAndEnqueue(ctx, doc, fileBytes)
}

// storeAndEnqueue walks the upload track: uploading, then the durable write,
// then completed. The storage commit always precedes the completed flip. A
// completed upload is enqueued for extraction exactly once.
func (s *DocumentService) storeAndEnqueue(ctx context.Context, doc *entity.Document, fileBytes []byte) (*DocumentWithResult, error) {
	if err := s.docs.SetUploadStatus(ctx, doc.ID, constants.UploadPending, constants.UploadUploading, ""); err != nil {
		return nil, err
	}
	doc.UploadStatus = constants.UploadUploading

	if err := s.store.Put(ctx, doc.StoragePath, bytes.NewReader(fileBytes)); err != nil {
		reason := common.StorageErrorf(err, "put blob").Error()
		s.logger.Error("blob write failed", "document_id", doc.ID, "path", doc.StoragePath, "err", err)
		if sErr := s.docs.SetUploadStatus(ctx, doc.ID, constants.UploadUploading, constants.UploadFailed, reason); sErr != nil {
			return nil, sErr
		}
		doc.UploadStatus = constants.UploadFailed
		doc.UploadError = reason
		s.metrics.ObserveUpload("storage_failed")
		return &DocumentWithResult{Document: *doc}, nil
	}

	if err := s.docs.SetUploadStatus(ctx, doc.ID, constants.UploadUploading, constants.UploadCompleted, ""); err != nil {
		return nil, err
	}
	doc.UploadStatus = constants.UploadCompleted
	s.metrics.ObserveUpload("completed")

	if err := s.queue.Enqueue(ctx, pipeline.Job{DocumentID: doc.ID, SubmittedAt: time.Now().UTC()}); err != nil {
		s.logger.Error("extraction enqueue failed", "document_id", doc.ID, "error", err)
	}
	return &DocumentWithResult{Document: *doc}, nil
}

// Get returns the document and its current extraction result.
func (s *DocumentService) Get(ctx context.Context, documentID uuid.UUID) (*DocumentWithResult, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.withResult(ctx, doc, false), nil
}

// Reprocess re-triggers extraction for a document whose upload completed.
// A new result will supersede the current one; an extraction already in
// flight is rejected rather than run concurrently.
func (s *DocumentService) Reprocess(ctx context.Context, documentID uuid.UUID) (*DocumentWithResult, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UploadStatus != constants.UploadCompleted {
		return nil, common.ValidationErrorf("document %s has no completed upload to process", documentID)
	}
	if doc.OCRStatus == constants.OCRProcessing {
		return nil, fmt.Errorf("document %s is already processing: %w", documentID, common.ErrConflict)
	}

	if err := s.queue.Enqueue(ctx, pipeline.Job{DocumentID: documentID, SubmittedAt: time.Now().UTC()}); err != nil {
		return nil, err
	}
	s.logger.Info("reprocess requested", "document_id", documentID, "ocr_status", doc.OCRStatus)
	return s.withResult(ctx, doc, false), nil
}

// SetValidation persists reviewer-entered fields. The pipeline accepts these
// as external input and never computes them.
func (s *DocumentService) SetValidation(ctx context.Context, documentID uuid.UUID, status constants.ValidationStatus, notes, reviewer string) (*DocumentWithResult, error) {
	if _, ok := constants.ValidationStatuses[status]; !ok {
		return nil, common.ValidationErrorf("unknown validation status %q", status)
	}
	if err := s.docs.UpdateValidation(ctx, documentID, status, notes, reviewer, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Get(ctx, documentID)
}

// ListReviewQueue returns documents whose current extraction requires review
// and that no reviewer has settled yet.
func (s *DocumentService) ListReviewQueue(ctx context.Context) ([]DocumentWithResult, error) {
	docs, err := s.docs.ListRequiringReview(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentWithResult, 0, len(docs))
	for i := range docs {
		out = append(out, *s.withResult(ctx, &docs[i], false))
	}
	return out, nil
}

// Delete removes a document, its blob and any extraction results. This is a
// back-office action, never the pipeline's.
func (s *DocumentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.StoragePath != "" {
		if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
			return common.StorageErrorf(err, "delete blob")
		}
	}
	return s.docs.Delete(ctx, documentID)
}

func (s *DocumentService) withResult(ctx context.Context, doc *entity.Document, dedup bool) *DocumentWithResult {
	out := &DocumentWithResult{Document: *doc, Deduplicated: dedup}
	if res, err := s.results.GetCurrentByDocument(ctx, doc.ID); err == nil {
		out.Result = res
	}
	return out
}

// validate enforces the intake constraints and resolves the storage
// extension. Rejections happen before any side effect.
func (s *DocumentService) validate(req *UploadRequest) (string, error) {
	if req.OwnerID == uuid.Nil {
		return "", common.ValidationErrorf("owner id is required")
	}
	if req.Filename == "" {
		return "", common.ValidationErrorf("filename is required")
	}
	if req.Size > s.maxBytes {
		return "", common.ValidationErrorf("file exceeds maximum size of %d bytes", s.maxBytes)
	}
	ext, ok := constants.ExtForMIME(req.MIMEType)
	if !ok {
		return "", common.ValidationErrorf("mime type %q is not allowed", req.MIMEType)
	}
	if !constants.DocumentTypeAllowed(req.OwnerKind, req.DocumentType) {
		return "", common.ValidationErrorf("document type %q is not recognized for owner kind %q", req.DocumentType, req.OwnerKind)
	}
	return ext, nil
}
