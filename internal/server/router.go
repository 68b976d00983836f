// Package server exposes the document pipeline over HTTP: upload intake for
// the onboarding forms, status polling, reprocessing and the review queue.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/common"
	"github.com/agrolink-ro/supplier-docs/internal/export"
	"github.com/agrolink-ro/supplier-docs/internal/metrics"
	"github.com/agrolink-ro/supplier-docs/internal/service"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker func(ctx context.Context) error

type Router struct {
	docs     *service.DocumentService
	exporter *export.Service
	metrics  *metrics.Metrics
	health   HealthChecker
	logger   *slog.Logger
	maxBytes int64
}

func NewRouter(
	docs *service.DocumentService,
	exporter *export.Service,
	m *metrics.Metrics,
	health HealthChecker,
	logger *slog.Logger,
	maxBytes int64,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	return &Router{
		docs:     docs,
		exporter: exporter,
		metrics:  m,
		health:   health,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())
	mux.HandleFunc("POST /v1/owners/{ownerID}/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("PUT /v1/documents/{id}/file", rt.reuploadDocument)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	mux.HandleFunc("POST /v1/documents/{id}/reprocess", rt.reprocessDocument)
	mux.HandleFunc("PUT /v1/documents/{id}/validation", rt.setValidation)
	mux.HandleFunc("GET /v1/review-queue", rt.listReviewQueue)
	mux.HandleFunc("GET /v1/review-queue/export", rt.exportReviewQueue)

	handler := accessLogMiddleware(rt.logger, rt.metrics)(mux)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.PathValue("ownerID"))
	if err != nil {
		writeError(w, common.ValidationErrorf("owner id must be a uuid"))
		return
	}

	req, file, err := rt.parseUploadForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()
	req.OwnerID = ownerID

	out, err := rt.docs.Upload(r.Context(), *req)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusAccepted
	if out.Deduplicated {
		status = http.StatusOK
	}
	writeJSON(w, status, out)
}

func (rt *Router) reuploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, common.ValidationErrorf("document id must be a uuid"))
		return
	}

	req, file, err := rt.parseUploadForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	out, err := rt.docs.Reupload(r.Context(), id, *req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

// parseUploadForm reads the multipart body shared by upload and re-upload.
// The body is capped before parsing so an oversized request never reaches
// the service.
func (rt *Router) parseUploadForm(w http.ResponseWriter, r *http.Request) (*service.UploadRequest, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(rt.maxBytes + formOverheadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, common.ValidationErrorf("request exceeds maximum upload size of %d bytes", rt.maxBytes)
		}
		return nil, nil, common.ValidationErrorf("invalid multipart body: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, common.ValidationErrorf("multipart field 'file' is required")
	}

	ownerKind, ok := constants.ParseOwnerKind(r.FormValue("owner_kind"))
	if !ok {
		file.Close()
		return nil, nil, common.ValidationErrorf("owner_kind must be 'supplier' or 'contact'")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = r.FormValue("mime_type")
	}

	req := &service.UploadRequest{
		OwnerKind:    ownerKind,
		DocumentType: constants.DocumentType(strings.TrimSpace(r.FormValue("document_type"))),
		Filename:     header.Filename,
		MIMEType:     mimeType,
		Size:         header.Size,
		Description:  r.FormValue("description"),
		UploadedBy:   r.FormValue("uploaded_by"),
		Data:         file,
	}
	return req, file, nil
}

// formOverheadBytes leaves room for multipart boundaries and text fields on
// top of the file size cap.
const formOverheadBytes = 64 << 10

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, common.ValidationErrorf("document id must be a uuid"))
		return
	}
	out, err := rt.docs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, common.ValidationErrorf("document id must be a uuid"))
		return
	}
	if err := rt.docs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, common.ValidationErrorf("document id must be a uuid"))
		return
	}
	out, err := rt.docs.Reprocess(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (rt *Router) setValidation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, common.ValidationErrorf("document id must be a uuid"))
		return
	}

	var req struct {
		Status   string `json:"status"`
		Notes    string `json:"notes"`
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ValidationErrorf("invalid json"))
		return
	}
	if strings.TrimSpace(req.Reviewer) == "" {
		writeError(w, common.ValidationErrorf("reviewer is required"))
		return
	}

	out, err := rt.docs.SetValidation(r.Context(), id, constants.ValidationStatus(req.Status), req.Notes, req.Reviewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) listReviewQueue(w http.ResponseWriter, r *http.Request) {
	out, err := rt.docs.ListReviewQueue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (rt *Router) exportReviewQueue(w http.ResponseWriter, r *http.Request) {
	data, err := rt.exporter.ExportReviewQueueXLSX(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	filename := "review-queue-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
