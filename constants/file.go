package constants

import "strings"

// MaxUploadBytes is the default upload size ceiling (10 MB).
const MaxUploadBytes = 10 << 20

// AllowedMIMETypes holds the MIME types accepted by upload intake,
// mapped to the canonical file extension used on the storage path.
var AllowedMIMETypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"application/pdf": "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"text/plain": "txt",
}

// ImageMIMETypes are the subset a raster OCR engine can consume directly.
var ImageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtForMIME returns the canonical extension for an allowed MIME type.
func ExtForMIME(mime string) (string, bool) {
	ext, ok := AllowedMIMETypes[strings.ToLower(strings.TrimSpace(mime))]
	return ext, ok
}
