// internal/adapters/in/http/handlers/record_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// FeeRecordLister is the part of usecase.FeeRecordQuery the handler needs.
type FeeRecordLister interface {
	ListByMint(ctx context.Context, mintAddress string) ([]issuance.FeeRecord, error)
}

// RecordHandler serves GET /fee-records?mintAddress=...
type RecordHandler struct {
	q FeeRecordLister
}

func NewRecordHandler(q FeeRecordLister) http.Handler {
	return &RecordHandler{q: q}
}

func (h *RecordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/fee-records" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if h.q == nil {
		writeError(w, http.StatusInternalServerError, "fee record query is not configured")
		return
	}

	recs, err := h.q.ListByMint(r.Context(), r.URL.Query().Get("mintAddress"))
	if err != nil {
		writeUsecaseErr(w, "fee_records", err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"records": recs,
	})
}
