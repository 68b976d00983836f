package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
)

type stubDocs struct {
	docs []entity.Document
}

func (s stubDocs) Create(context.Context, *entity.Document) error { return nil }
func (s stubDocs) GetByID(context.Context, uuid.UUID) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (s stubDocs) GetByOwnerAndHash(context.Context, uuid.UUID, []byte) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (s stubDocs) SetUploadStatus(context.Context, uuid.UUID, constants.UploadStatus, constants.UploadStatus, string) error {
	return nil
}
func (s stubDocs) SetOCRStatus(context.Context, uuid.UUID, constants.OCRStatus, constants.OCRStatus, string) error {
	return nil
}
func (s stubDocs) ResetForReupload(context.Context, *entity.Document) error { return nil }
func (s stubDocs) UpdateValidation(context.Context, uuid.UUID, constants.ValidationStatus, string, string, time.Time) error {
	return nil
}
func (s stubDocs) ListRequiringReview(context.Context) ([]entity.Document, error) {
	return s.docs, nil
}
func (s stubDocs) Delete(context.Context, uuid.UUID) error { return nil }

type stubResults struct {
	byDoc map[uuid.UUID]*entity.ExtractionResult
}

func (s stubResults) InsertCurrent(context.Context, *entity.ExtractionResult) error { return nil }
func (s stubResults) GetCurrentByDocument(_ context.Context, id uuid.UUID) (*entity.ExtractionResult, error) {
	res, ok := s.byDoc[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return res, nil
}

func TestExportReviewQueueXLSX(t *testing.T) {
	docID := uuid.New()
	docs := stubDocs{docs: []entity.Document{{
		ID:               docID,
		OwnerID:          uuid.New(),
		OwnerKind:        constants.OwnerSupplier,
		DocumentType:     constants.DocTypeTaxRegistrationCertificate,
		Filename:         "certificat.pdf",
		ValidationStatus: constants.ValidationNotReviewed,
		CreatedAt:        time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}}}
	results := stubResults{byDoc: map[uuid.UUID]*entity.ExtractionResult{
		docID: {
			DocumentID:        docID,
			Fields:            map[string]string{entity.FieldCUI: "1590082", entity.FieldBusinessName: "AGRO FERM S.R.L."},
			OverallConfidence: 84.5,
			ConfidenceLevel:   constants.ConfidenceMedium,
			RequiresReview:    true,
			Warnings:          []string{"expected field \"address\" not populated"},
		},
	}}

	svc := NewService(docs, results, nil)
	data, err := svc.ExportReviewQueueXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Review Queue")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one document")

	assert.Equal(t, "Document ID", rows[0][0])
	assert.Equal(t, docID.String(), rows[1][0])
	assert.Equal(t, "certificat.pdf", rows[1][4])
	assert.Equal(t, "84.50", rows[1][6])
	assert.Equal(t, "medium", rows[1][7])
	assert.Contains(t, rows[1][8], "business_name=AGRO FERM S.R.L.")
	assert.Contains(t, rows[1][8], "cui=1590082")
}

func TestExportReviewQueueEmpty(t *testing.T) {
	svc := NewService(stubDocs{}, stubResults{}, nil)
	data, err := svc.ExportReviewQueueXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Review Queue")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
