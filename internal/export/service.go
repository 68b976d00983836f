// Package export produces XLSX workbooks for back-office review.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/agrolink-ro/supplier-docs/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	docs    repository.DocumentRepository
	results repository.ExtractionResultRepository
	logger  *slog.Logger
}

func NewService(docs repository.DocumentRepository, results repository.ExtractionResultRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, results: results, logger: logger}
}

// ExportReviewQueueXLSX returns an XLSX workbook (as bytes) with one row per
// document waiting on a reviewer, including the extracted fields that need
// checking.
func (s *Service) ExportReviewQueueXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.ListRequiringReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Review Queue"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Document ID",
		"Owner ID",
		"Owner Kind",
		"Document Type",
		"Filename",
		"Uploaded",
		"Confidence",
		"Level",
		"Extracted Fields",
		"Warnings",
		"Errors",
		"Validation Status",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for i := range docs {
		d := &docs[i]

		confidence := ""
		level := ""
		fields := ""
		warnings := ""
		errs := ""
		if res, err := s.results.GetCurrentByDocument(ctx, d.ID); err == nil {
			confidence = fmt.Sprintf("%.2f", res.OverallConfidence)
			level = string(res.ConfidenceLevel)
			fields = formatFields(res.Fields)
			warnings = strings.Join(res.Warnings, "; ")
			errs = strings.Join(res.Errors, "; ")
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, d.ID.String())
		write(2, d.OwnerID.String())
		write(3, string(d.OwnerKind))
		write(4, string(d.DocumentType))
		write(5, d.Filename)
		write(6, d.CreatedAt.Format("2006-01-02 15:04"))
		write(7, confidence)
		write(8, level)
		write(9, truncate(fields, 200))
		write(10, truncate(warnings, 140))
		write(11, truncate(errs, 140))
		write(12, string(d.ValidationStatus))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 38) // ids
	_ = f.SetColWidth(sheet, "C", "D", 24)
	_ = f.SetColWidth(sheet, "E", "E", 30) // filename
	_ = f.SetColWidth(sheet, "F", "H", 14)
	_ = f.SetColWidth(sheet, "I", "K", 50) // fields, warnings, errors
	_ = f.SetColWidth(sheet, "L", "L", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func formatFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+fields[name])
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
