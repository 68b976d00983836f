package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
)

// Document represents one uploaded file belonging to a supplier or contact,
// for data transfer between layers.
type Document struct {
	ID           uuid.UUID              `json:"id"`
	OwnerID      uuid.UUID              `json:"owner_id"`
	OwnerKind    constants.OwnerKind    `json:"owner_kind"`
	DocumentType constants.DocumentType `json:"document_type"`
	Filename     string                 `json:"filename"`
	FileExt      string                 `json:"file_ext"`
	FileSize     int64                  `json:"file_size"`
	MIMEType     string                 `json:"mime_type"`
	StoragePath  string                 `json:"storage_path,omitempty"`
	ContentHash  []byte                 `json:"content_hash,omitempty"`
	Description  string                 `json:"description,omitempty"`
	UploadedBy   string                 `json:"uploaded_by,omitempty"`

	UploadStatus constants.UploadStatus `json:"upload_status"`
	OCRStatus    constants.OCRStatus    `json:"ocr_status"`
	UploadError  string                 `json:"upload_error,omitempty"`
	OCRError     string                 `json:"ocr_error,omitempty"`

	ValidationStatus constants.ValidationStatus `json:"validation_status"`
	ValidationNotes  string                     `json:"validation_notes,omitempty"`
	ReviewedBy       string                     `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time                 `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
