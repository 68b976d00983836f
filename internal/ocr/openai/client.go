package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

// ProviderName is the tag recorded on every result produced by this client.
const ProviderName = "openai"

func (c *Client) Name() string { return ProviderName }

// Recognize implements ocr.Provider over chat/completions. Images go through
// the vision path as a data URL; PDFs and plain text are sent as text after
// pulling the embedded text layer. Scanned PDFs without a text layer are a
// provider error, surfaced onto the document's OCR track.
func (c *Client) Recognize(ctx context.Context, fileBytes []byte, req ocr.RecognizeRequest) (ocr.RawOutput, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("ocr.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.MIMEType,
		"document_type", req.DocumentType,
		"file_bytes", len(fileBytes),
	)

	userContent, err := buildUserContent(fileBytes, req)
	if err != nil {
		c.log.Error("ocr.openai.input_error", "req_id", rid, "error", err)
		return ocr.RawOutput{}, err
	}

	schema := ocr.BuildRawOutputJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req.DocumentType)},
			{"role": "user", "content": userContent},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("ocr.openai.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ocr.RawOutput{}, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("ocr.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ocr.RawOutput{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("ocr.openai.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return ocr.RawOutput{}, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := ocr.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.log.Error("ocr.openai.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return ocr.RawOutput{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var out ocr.RawOutput
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("ocr.openai.unmarshal_failed", "req_id", rid, "error", err)
		return ocr.RawOutput{}, fmt.Errorf("unmarshal raw output: %w", err)
	}
	out.Provider = ProviderName

	c.log.Info("ocr.openai.ok",
		"req_id", rid,
		"fields", len(out.Fields),
		"text_len", len(out.Text),
		"warnings", len(out.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func buildUserContent(fileBytes []byte, req ocr.RecognizeRequest) (any, error) {
	mime := strings.ToLower(strings.TrimSpace(req.MIMEType))
	if _, ok := constants.ImageMIMETypes[mime]; ok {
		dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(fileBytes)
		return []map[string]any{
			{"type": "text", "text": "Read this document image and extract the fields. Filename: " + req.Filename},
			{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
		}, nil
	}

	var text string
	switch mime {
	case "application/pdf":
		layer, err := ocr.PDFTextLayer(fileBytes)
		if err != nil {
			return nil, fmt.Errorf("pdf text layer: %w", err)
		}
		if layer == "" {
			return nil, fmt.Errorf("pdf has no text layer; upload a JPEG/PNG scan instead")
		}
		text = layer
	case "text/plain":
		text = string(fileBytes)
	default:
		return nil, fmt.Errorf("mime type %q not supported by the openai provider", mime)
	}
	return "Filename: " + req.Filename + "\n\nDocument text:\n" + clip(text, 12000), nil
}

func buildSystemPrompt(dt constants.DocumentType) string {
	parts := []string{
		"You are a document parser for Romanian supplier-onboarding paperwork.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Put the full recognized text in 'text'.",
		"Report every field you can read under 'fields' with a 0-100 confidence.",
		"Use these field names where applicable: business_name, cui, trade_register_number, address, iban, bank_name, representative, full_name, personal_id.",
		"CUI is the Romanian tax identifier (digits, optional RO prefix).",
		"trade_register_number looks like J12/345/2020.",
		"IBANs start with RO and have 24 characters.",
		"Report data-quality problems (blur, cropping, stamps over text) as 'warnings'.",
		"Never output null. If a field is not readable, omit it.",
	}
	if dt != "" && dt != constants.DocTypeOther {
		parts = append(parts, "The uploader declared this document as: "+string(dt)+".")
	}
	return strings.Join(parts, " ")
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
