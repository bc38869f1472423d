// internal/adapters/in/http/handlers/listing_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// ListingRequester is the part of usecase.ListingUsecase the handler needs.
type ListingRequester interface {
	RequestListing(ctx context.Context, mintAddress, ownerAddress string) (issuance.ListingRequest, error)
}

// ListingHandler serves POST /list-raydium.
type ListingHandler struct {
	uc ListingRequester
}

func NewListingHandler(uc ListingRequester) http.Handler {
	return &ListingHandler{uc: uc}
}

type listRaydiumRequest struct {
	MintAddress  string `json:"mintAddress"`
	OwnerAddress string `json:"ownerAddress"`
}

func (h *ListingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/list-raydium" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.uc == nil {
		writeError(w, http.StatusInternalServerError, "listing usecase is not configured")
		return
	}

	var req listRaydiumRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	lr, err := h.uc.RequestListing(r.Context(), req.MintAddress, req.OwnerAddress)
	if err != nil {
		writeUsecaseErr(w, "list_raydium", err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Listing request received for " + lr.MintAddress,
	})
}
