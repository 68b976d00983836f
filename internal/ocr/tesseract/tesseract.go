// Package tesseract is the local recognition provider: gosseract for raster
// images, the embedded text layer for PDFs and plain text, plus pattern-based
// field guessing over the recognized text.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

// ProviderName is the tag recorded on every result produced by this engine.
const ProviderName = "tesseract"

type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
	log           *slog.Logger
}

// NewEngine constructs a tesseract-backed provider. langs is a '+'-separated
// tesseract language list, e.g. "ron+eng".
func NewEngine(langs string, logger *slog.Logger) *Engine {
	if langs == "" {
		langs = "ron+eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		languages:     strings.Split(langs, "+"),
		clientFactory: gosseract.NewClient,
		log:           logger,
	}
}

func (e *Engine) Name() string { return ProviderName }

// Recognize implements ocr.Provider.
func (e *Engine) Recognize(ctx context.Context, fileBytes []byte, req ocr.RecognizeRequest) (ocr.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return ocr.RawOutput{}, err
	}

	mime := strings.ToLower(strings.TrimSpace(req.MIMEType))
	var (
		text     string
		textConf float64
		warnings []string
	)

	switch {
	case isImage(mime):
		var err error
		text, textConf, err = e.recognizeImage(ctx, fileBytes)
		if err != nil {
			e.log.Error("ocr.tesseract.image_failed", "filename", req.Filename, "error", err)
			return ocr.RawOutput{}, err
		}
	case mime == "application/pdf":
		layer, err := ocr.PDFTextLayer(fileBytes)
		if err != nil {
			e.log.Error("ocr.tesseract.pdf_failed", "filename", req.Filename, "error", err)
			return ocr.RawOutput{}, err
		}
		if layer == "" {
			return ocr.RawOutput{}, fmt.Errorf("pdf has no text layer; upload a JPEG/PNG scan instead")
		}
		text = layer
		textConf = 95 // embedded text, not recognition output
	case mime == "text/plain":
		text = string(fileBytes)
		textConf = 98
	default:
		return ocr.RawOutput{}, fmt.Errorf("mime type %q not supported by the tesseract provider", mime)
	}

	if len(strings.TrimSpace(text)) < 40 {
		warnings = append(warnings, "little text recognized; possible low image quality")
	}

	fields := guessFields(text, req.DocumentType, textConf)
	e.log.Info("ocr.tesseract.ok",
		"filename", req.Filename,
		"text_len", len(text),
		"avg_confidence", textConf,
		"fields", len(fields),
	)

	return ocr.RawOutput{
		Provider: ProviderName,
		Text:     text,
		Fields:   fields,
		Warnings: warnings,
	}, nil
}

// recognizeImage runs gosseract over raster bytes and averages the per-word
// confidences into a 0..100 text confidence.
func (e *Engine) recognizeImage(_ context.Context, imageBytes []byte) (string, float64, error) {
	c := e.clientFactory()
	defer func() {
		if err := c.Close(); err != nil {
			e.log.Warn("ocr.tesseract.close_error", "error", err)
		}
	}()

	if err := c.SetImageFromBytes(imageBytes); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", 0, fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize text: %w", err)
	}

	avg := 0.0
	if boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		sum := 0.0
		for _, b := range boxes {
			sum += b.Confidence
		}
		avg = sum / float64(len(boxes))
	}
	return strings.TrimSpace(text), avg, nil
}

func isImage(mime string) bool {
	_, ok := constants.ImageMIMETypes[mime]
	return ok
}
