package constants

// UploadStatus tracks a document through blob storage.
type UploadStatus string

// Stable values (store these exact strings in DB).
const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// OCRStatus tracks a document through the extraction pipeline.
// It may only leave "pending" once the upload track reached "completed".
type OCRStatus string

const (
	OCRPending    OCRStatus = "pending"
	OCRProcessing OCRStatus = "processing"
	OCRCompleted  OCRStatus = "completed"
	OCRFailed     OCRStatus = "failed"
)

// ValidationStatus is set by human reviewers, never by the pipeline.
type ValidationStatus string

const (
	ValidationNotReviewed ValidationStatus = "not_reviewed"
	ValidationUnderReview ValidationStatus = "under_review"
	ValidationApproved    ValidationStatus = "approved"
	ValidationRejected    ValidationStatus = "rejected"
	ValidationExpired     ValidationStatus = "expired"
	ValidationInvalid     ValidationStatus = "invalid"
)

// ValidationStatuses is the accepted set for reviewer updates.
var ValidationStatuses = map[ValidationStatus]struct{}{
	ValidationNotReviewed: {},
	ValidationUnderReview: {},
	ValidationApproved:    {},
	ValidationRejected:    {},
	ValidationExpired:     {},
	ValidationInvalid:     {},
}

// ConfidenceLevel classifies an overall extraction confidence.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)
