package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrolink-ro/supplier-docs/constants"
)

func TestUploadTrackHappyPath(t *testing.T) {
	assert.True(t, UploadAllowed(constants.UploadPending, constants.UploadUploading))
	assert.True(t, UploadAllowed(constants.UploadUploading, constants.UploadCompleted))
	assert.True(t, UploadAllowed(constants.UploadUploading, constants.UploadFailed))
}

func TestUploadTrackNeverSkipsUploading(t *testing.T) {
	assert.False(t, UploadAllowed(constants.UploadPending, constants.UploadCompleted))
	assert.False(t, UploadAllowed(constants.UploadPending, constants.UploadFailed))
}

func TestUploadTerminalStatesOnlyResetToPending(t *testing.T) {
	for _, from := range []constants.UploadStatus{constants.UploadCompleted, constants.UploadFailed} {
		assert.True(t, UploadAllowed(from, constants.UploadPending), "re-upload from %s", from)
		assert.False(t, UploadAllowed(from, constants.UploadUploading), "from %s", from)
		assert.False(t, UploadAllowed(from, constants.UploadCompleted) && from != constants.UploadCompleted)
	}
	// completed never moves straight back to completed or failed
	assert.False(t, UploadAllowed(constants.UploadCompleted, constants.UploadFailed))
	assert.False(t, UploadAllowed(constants.UploadFailed, constants.UploadCompleted))
}

func TestOCRTrackHappyPath(t *testing.T) {
	assert.True(t, OCRAllowed(constants.OCRPending, constants.OCRProcessing))
	assert.True(t, OCRAllowed(constants.OCRProcessing, constants.OCRCompleted))
	assert.True(t, OCRAllowed(constants.OCRProcessing, constants.OCRFailed))
}

func TestOCRReprocessReentersProcessing(t *testing.T) {
	assert.True(t, OCRAllowed(constants.OCRCompleted, constants.OCRProcessing))
	assert.True(t, OCRAllowed(constants.OCRFailed, constants.OCRProcessing))
}

func TestOCRReuploadResetsAnyState(t *testing.T) {
	for _, from := range []constants.OCRStatus{
		constants.OCRPending, constants.OCRProcessing, constants.OCRCompleted, constants.OCRFailed,
	} {
		assert.True(t, OCRAllowed(from, constants.OCRPending), "reset from %s", from)
	}
}

func TestOCRNeverSkipsProcessing(t *testing.T) {
	assert.False(t, OCRAllowed(constants.OCRPending, constants.OCRCompleted))
	assert.False(t, OCRAllowed(constants.OCRPending, constants.OCRFailed))
	assert.False(t, OCRAllowed(constants.OCRCompleted, constants.OCRFailed))
	assert.False(t, OCRAllowed(constants.OCRFailed, constants.OCRCompleted))
}

func TestExtractionRequiresCompletedUpload(t *testing.T) {
	assert.True(t, CanStartExtraction(constants.UploadCompleted, constants.OCRPending))
	assert.True(t, CanStartExtraction(constants.UploadCompleted, constants.OCRFailed))
	assert.True(t, CanStartExtraction(constants.UploadCompleted, constants.OCRCompleted))

	assert.False(t, CanStartExtraction(constants.UploadPending, constants.OCRPending))
	assert.False(t, CanStartExtraction(constants.UploadUploading, constants.OCRPending))
	assert.False(t, CanStartExtraction(constants.UploadFailed, constants.OCRPending))
	// one extraction in flight at a time
	assert.False(t, CanStartExtraction(constants.UploadCompleted, constants.OCRProcessing))
}
