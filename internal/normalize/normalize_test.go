package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

func TestOverallConfidenceIsMeanOfPopulatedFields(t *testing.T) {
	got := OverallConfidence(map[string]float64{
		"business_name":         92,
		"cui":                   88,
		"trade_register_number": 95,
	})
	assert.InDelta(t, 91.6667, got, 0.001)
	assert.Equal(t, constants.ConfidenceHigh, LevelFor(got))
}

func TestOverallConfidenceEmpty(t *testing.T) {
	assert.Equal(t, 0.0, OverallConfidence(nil))
	assert.Equal(t, constants.ConfidenceLow, LevelFor(0))
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, constants.ConfidenceHigh, LevelFor(90.0))
	assert.Equal(t, constants.ConfidenceMedium, LevelFor(89.999))
	assert.Equal(t, constants.ConfidenceMedium, LevelFor(70.0))
	assert.Equal(t, constants.ConfidenceLow, LevelFor(69.999))
	assert.Equal(t, constants.ConfidenceHigh, LevelFor(100.0))
	assert.Equal(t, constants.ConfidenceLow, LevelFor(0.0))
}

func TestNormalizeMapsAliasesAndScoresOnlyPopulated(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Text:     "CERTIFICAT DE INREGISTRARE FISCALA",
		Fields: []ocr.RawField{
			{Name: "Denumire", Value: "AGRO FERM S.R.L.", Confidence: 92},
			{Name: "CIF", Value: "1590082", Confidence: 88},
			{Name: "reg_com", Value: "J40/1234/2020", Confidence: 95},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, 2*time.Second)

	assert.Equal(t, "AGRO FERM S.R.L.", res.Fields[entity.FieldBusinessName])
	assert.Equal(t, "1590082", res.Fields[entity.FieldCUI])
	assert.Equal(t, "J40/1234/2020", res.Fields[entity.FieldTradeRegisterNumber])
	assert.InDelta(t, 91.6667, res.OverallConfidence, 0.001)
	assert.Equal(t, constants.ConfidenceHigh, res.ConfidenceLevel)
	// all required fields present, high confidence, no errors
	assert.False(t, res.RequiresReview)
	assert.Empty(t, res.Errors)
}

func TestNormalizeMissingFieldWarnsButDoesNotZero(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Fields: []ocr.RawField{
			{Name: "business_name", Value: "AGRO FERM S.R.L.", Confidence: 95},
			{Name: "cui", Value: "1590082", Confidence: 93},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, time.Second)

	// mean over the two populated fields only
	assert.InDelta(t, 94.0, res.OverallConfidence, 0.001)
	assert.Equal(t, constants.ConfidenceHigh, res.ConfidenceLevel)
	// required trade_register_number absent: review regardless of level
	assert.True(t, res.RequiresReview)
	assert.True(t, hasWarningContaining(res.Warnings, "trade_register_number"))
	assert.Empty(t, res.Errors)
}

func TestNormalizeChecksumFailureIsWarningNotError(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "tesseract",
		Fields: []ocr.RawField{
			{Name: "business_name", Value: "AGRO FERM S.R.L.", Confidence: 95},
			{Name: "cui", Value: "1590083", Confidence: 95}, // bad check digit
			{Name: "trade_register_number", Value: "J40/1234/2020", Confidence: 95},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, time.Second)

	require.Contains(t, res.Fields, entity.FieldCUI, "bad checksum must not drop the field")
	assert.True(t, hasWarningContaining(res.Warnings, "CUI check digit"))
	assert.Empty(t, res.Errors)
	assert.Equal(t, constants.ConfidenceHigh, res.ConfidenceLevel)
	// warnings alone never force review
	assert.False(t, res.RequiresReview)
}

func TestNormalizeUnexpectedFieldIgnoredForTypedDocument(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Fields: []ocr.RawField{
			{Name: "iban", Value: "RO49AAAA1B31007593840000", Confidence: 99},
			{Name: "business_name", Value: "AGRO FERM S.R.L.", Confidence: 60},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, time.Second)

	assert.NotContains(t, res.Fields, entity.FieldIBAN)
	// the ignored field does not lift the mean
	assert.InDelta(t, 60.0, res.OverallConfidence, 0.001)
	assert.True(t, hasWarningContaining(res.Warnings, "not expected"))
}

func TestNormalizeFreeFormKeepsEverything(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Fields: []ocr.RawField{
			{Name: "anything", Value: "goes", Confidence: 80},
			{Name: "Some Field", Value: "x", Confidence: 70},
		},
	}

	res := Normalize(raw, constants.DocTypeOther, time.Second)

	assert.Equal(t, "goes", res.Fields["anything"])
	assert.Equal(t, "x", res.Fields["some_field"])
	assert.InDelta(t, 75.0, res.OverallConfidence, 0.001)
}

func TestNormalizeDuplicateKeepsHigherConfidence(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Fields: []ocr.RawField{
			{Name: "cui", Value: "1590082", Confidence: 70},
			{Name: "cif", Value: "13590", Confidence: 90},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, time.Second)

	assert.Equal(t, "13590", res.Fields[entity.FieldCUI])
	assert.Equal(t, 90.0, res.Confidences[entity.FieldCUI])
}

func TestNormalizeNoUsableFieldsIsError(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "tesseract",
		Fields: []ocr.RawField{
			{Name: "", Value: "orphan", Confidence: 90},
			{Name: "business_name", Value: "   ", Confidence: 90},
		},
	}

	res := Normalize(raw, constants.DocTypeTaxRegistrationCertificate, time.Second)

	assert.Empty(t, res.Fields)
	assert.Equal(t, 0.0, res.OverallConfidence)
	assert.Equal(t, constants.ConfidenceLow, res.ConfidenceLevel)
	assert.True(t, res.RequiresReview)
	require.NotEmpty(t, res.Errors)
}

func TestNormalizeMissingConfidenceGetsDefaultWithWarning(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "tesseract",
		Fields: []ocr.RawField{
			{Name: "iban", Value: "RO49AAAA1B31007593840000", Confidence: 0},
		},
	}

	res := Normalize(raw, constants.DocTypeBankStatement, time.Second)

	assert.Equal(t, defaultFieldConfidence, res.Confidences[entity.FieldIBAN])
	assert.True(t, hasWarningContaining(res.Warnings, "no confidence reported"))
}

func TestNormalizeClampsOutOfRangeConfidence(t *testing.T) {
	raw := ocr.RawOutput{
		Provider: "openai",
		Fields: []ocr.RawField{
			{Name: "iban", Value: "RO49AAAA1B31007593840000", Confidence: 150},
		},
	}

	res := Normalize(raw, constants.DocTypeBankStatement, time.Second)

	assert.Equal(t, 100.0, res.Confidences[entity.FieldIBAN])
	assert.True(t, hasWarningContaining(res.Warnings, "clamped"))
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
