// Package lifecycle defines the legal status transitions for the two
// independent tracks on a document: upload and OCR. Repositories consult it
// before persisting a transition, so an illegal move never reaches the DB.
package lifecycle

import "github.com/agrolink-ro/supplier-docs/constants"

// Track names, recorded on every audit row.
const (
	TrackUpload = "upload"
	TrackOCR    = "ocr"
)

// uploadTransitions: pending → uploading → completed|failed, and a brand-new
// upload resets any terminal state back to pending.
var uploadTransitions = map[constants.UploadStatus][]constants.UploadStatus{
	constants.UploadPending:   {constants.UploadUploading},
	constants.UploadUploading: {constants.UploadCompleted, constants.UploadFailed},
	constants.UploadCompleted: {constants.UploadPending},
	constants.UploadFailed:    {constants.UploadPending},
}

// ocrTransitions: pending → processing → completed|failed. Reprocess forces a
// terminal state back into processing; a re-upload resets any state to pending.
var ocrTransitions = map[constants.OCRStatus][]constants.OCRStatus{
	constants.OCRPending:    {constants.OCRProcessing, constants.OCRPending},
	constants.OCRProcessing: {constants.OCRCompleted, constants.OCRFailed, constants.OCRPending},
	constants.OCRCompleted:  {constants.OCRProcessing, constants.OCRPending},
	constants.OCRFailed:     {constants.OCRProcessing, constants.OCRPending},
}

// UploadAllowed reports whether the upload track may move from → to.
func UploadAllowed(from, to constants.UploadStatus) bool {
	for _, next := range uploadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OCRAllowed reports whether the OCR track may move from → to.
func OCRAllowed(from, to constants.OCRStatus) bool {
	for _, next := range ocrTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanStartExtraction gates the ordering invariant: the OCR track may only
// leave pending once the upload track reached completed.
func CanStartExtraction(upload constants.UploadStatus, ocr constants.OCRStatus) bool {
	if upload != constants.UploadCompleted {
		return false
	}
	return OCRAllowed(ocr, constants.OCRProcessing)
}
