// internal/adapters/in/http/handlers/transaction_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// TransactionExecutor is the part of usecase.SubmissionUsecase the handler needs.
// 鍵の確認 → base64 decode の順序は usecase 側で保証する。
type TransactionExecutor interface {
	ExecuteEncoded(ctx context.Context, enc issuance.EncodedPair) (issuance.SubmissionResult, error)
}

// TransactionHandler serves POST /execute-transactions.
type TransactionHandler struct {
	uc TransactionExecutor
}

func NewTransactionHandler(uc TransactionExecutor) http.Handler {
	return &TransactionHandler{uc: uc}
}

func (h *TransactionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/execute-transactions" {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.uc == nil {
		writeError(w, http.StatusInternalServerError, "submission usecase is not configured")
		return
	}

	var req issuance.EncodedPair
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	res, err := h.uc.ExecuteEncoded(r.Context(), req)
	if err != nil {
		writeUsecaseErr(w, "execute_transactions", err)
		return
	}

	body := envelope{
		"mintAddress": res.MintAddress,
		"outcome":     res.Outcome,
	}
	if res.FeeSignature != "" {
		body["feeSignature"] = res.FeeSignature
	}
	if res.MintSignature != "" {
		body["tokenSignature"] = res.MintSignature
	}

	if res.Outcome == issuance.OutcomeBothConfirmed {
		body["success"] = true
		writeJSON(w, http.StatusOK, body)
		return
	}

	// 片方だけ確定した場合も署名は隠さずに返す
	body["success"] = false
	body["error"] = partialMessage(res)
	body["legs"] = []issuance.LegReport{res.Fee, res.Mint}
	log.Printf("[execute_transactions] partial outcome=%s mint=%s fee=%q mintLeg=%q", res.Outcome, maskShort(res.MintAddress), res.Fee.Error, res.Mint.Error)
	writeJSON(w, http.StatusBadGateway, body)
}

func partialMessage(res issuance.SubmissionResult) string {
	switch res.Outcome {
	case issuance.OutcomeFeeOnlyConfirmed:
		return "fee transaction confirmed but token transaction failed: " + res.Mint.Error
	case issuance.OutcomeMintOnlyConfirmed:
		return "token transaction confirmed but fee transaction failed: " + res.Fee.Error
	default:
		return "neither transaction confirmed"
	}
}
