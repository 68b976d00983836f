package ocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextLayer pulls the embedded text layer out of a PDF, if one exists.
// Digitally issued certificates and bank statements carry one; scans do not.
func PDFTextLayer(fileBytes []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf text layer: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
