// Package ocr defines the recognition-provider capability the pipeline
// depends on. The normalizer consumes RawOutput only; it never sees a
// concrete provider.
package ocr

import (
	"context"

	"github.com/agrolink-ro/supplier-docs/constants"
)

// RawField is one provider-reported field guess. Name is provider-specific;
// the normalizer maps it to the canonical field set.
type RawField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"` // 0..100
}

// RawOutput is the provider's unnormalized recognition result.
type RawOutput struct {
	Provider string     `json:"provider"`
	Text     string     `json:"text"`
	Fields   []RawField `json:"fields"`
	Warnings []string   `json:"warnings,omitempty"`
}

// RecognizeRequest carries the stored file's metadata as extraction hints.
type RecognizeRequest struct {
	DocumentType constants.DocumentType
	MIMEType     string
	Filename     string
}

// Provider is the single capability interface a recognition backend
// implements. Implementations must honor ctx cancellation; the caller bounds
// every call with a deadline.
type Provider interface {
	Name() string
	Recognize(ctx context.Context, fileBytes []byte, req RecognizeRequest) (RawOutput, error)
}
