package server

import (
	"encoding/json"
	"net/http"

	"github.com/agrolink-ro/supplier-docs/internal/common"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case common.IsKind(err, common.ErrValidation):
		return http.StatusBadRequest
	case common.IsKind(err, common.ErrNotFound):
		return http.StatusNotFound
	case common.IsKind(err, common.ErrConflict):
		return http.StatusConflict
	case common.IsKind(err, common.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
