// Package normalize turns provider-specific raw OCR output into the canonical
// extraction result: mapped fields, per-field and overall confidence, a level
// classification and the derived requires-review flag.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

// defaultFieldConfidence is assigned, with a warning, when a provider reports
// a field without a usable confidence.
const defaultFieldConfidence = 50.0

// Normalize maps raw provider output onto the canonical field set for the
// given document type and derives the confidence figures. Document identity,
// ID and timestamps are the caller's business.
func Normalize(raw ocr.RawOutput, documentType constants.DocumentType, duration time.Duration) entity.ExtractionResult {
	schema := SchemaFor(documentType)

	res := entity.ExtractionResult{
		DocumentType: documentType,
		Provider:     raw.Provider,
		RawText:      raw.Text,
		Fields:       make(map[string]string),
		Confidences:  make(map[string]float64),
		Warnings:     append([]string(nil), raw.Warnings...),
		Duration:     duration,
		CreatedAt:    time.Now().UTC(),
	}

	expected := make(map[string]struct{}, len(schema.Expected))
	for _, f := range schema.Expected {
		expected[f] = struct{}{}
	}

	for _, rf := range raw.Fields {
		name := CanonicalFieldName(rf.Name)
		value := strings.TrimSpace(rf.Value)
		if name == "" || value == "" {
			continue
		}
		// fields the document type doesn't carry are excluded from scoring
		if len(expected) > 0 {
			if _, ok := expected[name]; !ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf("field %q not expected for %s, ignored", name, documentType))
				continue
			}
		}
		if prior, ok := res.Confidences[name]; ok && prior >= rf.Confidence {
			continue // keep the higher-confidence duplicate
		}
		conf, clamped := clampConfidence(rf.Confidence)
		if clamped {
			res.Warnings = append(res.Warnings, fmt.Sprintf("confidence for %q out of range, clamped", name))
		}
		if conf == 0 && rf.Confidence == 0 {
			conf = defaultFieldConfidence
			res.Warnings = append(res.Warnings, fmt.Sprintf("no confidence reported for %q, assumed %.0f", name, defaultFieldConfidence))
		}
		res.Fields[name] = value
		res.Confidences[name] = conf
	}

	res.Warnings = append(res.Warnings, formatWarnings(res.Fields)...)

	// expected-but-missing contributes a warning, not a zero score
	for _, f := range schema.Expected {
		if _, ok := res.Fields[f]; !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("expected field %q not populated", f))
		}
	}

	if len(res.Fields) == 0 {
		res.Errors = append(res.Errors, "no usable fields extracted")
	}

	res.OverallConfidence = OverallConfidence(res.Confidences)
	res.ConfidenceLevel = LevelFor(res.OverallConfidence)
	res.RequiresReview = deriveRequiresReview(res, schema)
	return res
}

// deriveRequiresReview: level != high, or hard errors, or a required field
// missing. Warnings never flip the flag on their own.
func deriveRequiresReview(res entity.ExtractionResult, schema FieldSchema) bool {
	if res.ConfidenceLevel != constants.ConfidenceHigh {
		return true
	}
	if len(res.Errors) > 0 {
		return true
	}
	for _, f := range schema.Required {
		if _, ok := res.Fields[f]; !ok {
			return true
		}
	}
	return false
}

// formatWarnings flags populated Romanian identifiers whose checksum or shape
// does not hold. Bad formats are data-quality signals, not hard errors: the
// reviewer decides.
func formatWarnings(fields map[string]string) []string {
	var out []string
	checks := []struct {
		field string
		valid func(string) bool
		label string
	}{
		{entity.FieldCUI, ValidCUI, "CUI check digit"},
		{entity.FieldTradeRegisterNumber, ValidONRC, "trade register format"},
		{entity.FieldIBAN, ValidRomanianIBAN, "IBAN checksum"},
		{entity.FieldPersonalID, ValidCNP, "CNP check digit"},
	}
	for _, c := range checks {
		if v, ok := fields[c.field]; ok && !c.valid(v) {
			out = append(out, fmt.Sprintf("%s failed for %q", c.label, v))
		}
	}
	sort.Strings(out)
	return out
}
