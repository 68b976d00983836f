// Package pipeline drives a stored document through recognition and
// normalization, recording every status transition on the document's OCR
// track.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/lifecycle"
	"github.com/agrolink-ro/supplier-docs/internal/metrics"
	"github.com/agrolink-ro/supplier-docs/internal/normalize"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
	"github.com/agrolink-ro/supplier-docs/internal/repository"
	"github.com/agrolink-ro/supplier-docs/internal/storage"
)

// Processor runs one extraction end to end: load blob, call the provider
// through the gate, normalize, store the result as current.
type Processor struct {
	docs     repository.DocumentRepository
	results  repository.ExtractionResultRepository
	store    storage.ObjectStorage
	provider ocr.Provider
	gate     *ProviderGate
	metrics  *metrics.Metrics
	logger   *slog.Logger
	timeout  time.Duration

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewProcessor(
	docs repository.DocumentRepository,
	results repository.ExtractionResultRepository,
	store storage.ObjectStorage,
	provider ocr.Provider,
	gate *ProviderGate,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Processor{
		docs:     docs,
		results:  results,
		store:    store,
		provider: provider,
		gate:     gate,
		metrics:  m,
		logger:   logger,
		timeout:  timeout,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Extract processes a single document. At most one extraction per document is
// in flight at any time; a concurrent call returns ErrConflict. Provider
// failures (timeouts included) land on the document's OCR track as "failed"
// with the reason captured, and are NOT returned as an error: callers observe
// them by polling status.
func (p *Processor) Extract(ctx context.Context, documentID uuid.UUID) error {
	if !p.acquire(documentID) {
		return fmt.Errorf("extraction for document %s already in flight: %w", documentID, common.ErrConflict)
	}
	defer p.release(documentID)

	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !lifecycle.CanStartExtraction(doc.UploadStatus, doc.OCRStatus) {
		return fmt.Errorf("document %s not ready for extraction (upload=%s, ocr=%s): %w",
			documentID, doc.UploadStatus, doc.OCRStatus, common.ErrConflict)
	}

	if err := p.docs.SetOCRStatus(ctx, documentID, doc.OCRStatus, constants.OCRProcessing, ""); err != nil {
		return err
	}

	p.metrics.ExtractionStarted()
	defer p.metrics.ExtractionFinished()

	start := time.Now()
	raw, provErr := p.recognize(ctx, doc)
	elapsed := time.Since(start)

	if provErr != nil {
		p.logger.Error("pipeline.extract.failed",
			"document_id", documentID,
			"provider", p.provider.Name(),
			"elapsed_ms", elapsed.Milliseconds(),
			"err", provErr,
		)
		p.metrics.ObserveExtraction(p.provider.Name(), "failed", elapsed)
		reason := common.ProviderErrorf(provErr, "recognize").Error()
		if err := p.docs.SetOCRStatus(ctx, documentID, constants.OCRProcessing, constants.OCRFailed, reason); err != nil {
			return err
		}
		return nil
	}

	res := normalize.Normalize(raw, doc.DocumentType, elapsed)
	res.ID = uuid.New()
	res.DocumentID = documentID

	if err := p.results.InsertCurrent(ctx, &res); err != nil {
		p.metrics.ObserveExtraction(p.provider.Name(), "failed", elapsed)
		if sErr := p.docs.SetOCRStatus(ctx, documentID, constants.OCRProcessing, constants.OCRFailed, "store result: "+err.Error()); sErr != nil {
			return sErr
		}
		return nil
	}
	if err := p.docs.SetOCRStatus(ctx, documentID, constants.OCRProcessing, constants.OCRCompleted, ""); err != nil {
		return err
	}

	p.metrics.ObserveExtraction(p.provider.Name(), "completed", elapsed)
	p.logger.Info("pipeline.extract.ok",
		"document_id", documentID,
		"provider", res.Provider,
		"fields", len(res.Fields),
		"overall_confidence", res.OverallConfidence,
		"confidence_level", res.ConfidenceLevel,
		"requires_review", res.RequiresReview,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

// recognize loads the blob and calls the provider through the gate, bounded
// by the extraction deadline.
func (p *Processor) recognize(ctx context.Context, doc *entity.Document) (ocr.RawOutput, error) {
	rc, err := p.store.Open(ctx, doc.StoragePath)
	if err != nil {
		return ocr.RawOutput{}, fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()
	fileBytes, err := io.ReadAll(rc)
	if err != nil {
		return ocr.RawOutput{}, fmt.Errorf("read stored file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var raw ocr.RawOutput
	gateErr := p.gate.Do(ctx, func(ctx context.Context) error {
		var callErr error
		raw, callErr = p.provider.Recognize(ctx, fileBytes, ocr.RecognizeRequest{
			DocumentType: doc.DocumentType,
			MIMEType:     doc.MIMEType,
			Filename:     doc.Filename,
		})
		return callErr
	})
	if gateErr != nil {
		return ocr.RawOutput{}, gateErr
	}
	if raw.Provider == "" {
		raw.Provider = p.provider.Name()
	}
	return raw, nil
}

func (p *Processor) acquire(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[id]; busy {
		return false
	}
	p.inFlight[id] = struct{}{}
	return true
}

func (p *Processor) release(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, id)
}
