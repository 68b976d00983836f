package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
)

// Canonical extracted-field names. Providers report free-form names; the
// normalizer maps them onto this set.
const (
	FieldBusinessName        = "business_name"
	FieldCUI                 = "cui"
	FieldTradeRegisterNumber = "trade_register_number"
	FieldAddress             = "address"
	FieldIBAN                = "iban"
	FieldBankName            = "bank_name"
	FieldRepresentative      = "representative"
	FieldFullName            = "full_name"
	FieldPersonalID          = "personal_id"
)

// ExtractionResult is the normalized OCR output for exactly one document.
// OverallConfidence, ConfidenceLevel and RequiresReview are derived by the
// normalizer and never set independently.
type ExtractionResult struct {
	ID           uuid.UUID              `json:"id"`
	DocumentID   uuid.UUID              `json:"document_id"`
	DocumentType constants.DocumentType `json:"document_type"`
	Provider     string                 `json:"provider"`

	RawText     string             `json:"raw_text,omitempty"`
	Fields      map[string]string  `json:"fields"`
	Confidences map[string]float64 `json:"confidences"` // 0..100, one per populated field

	OverallConfidence float64                   `json:"overall_confidence"`
	ConfidenceLevel   constants.ConfidenceLevel `json:"confidence_level"`
	RequiresReview    bool                      `json:"requires_review"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	Duration  time.Duration `json:"duration_ms"`
	CreatedAt time.Time     `json:"created_at"`
}
