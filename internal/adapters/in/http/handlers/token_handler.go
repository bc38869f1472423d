// internal/adapters/in/http/handlers/token_handler.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http/middleware"
	"github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// IssuancePreparer is the part of usecase.IssuanceUsecase the handler needs.
type IssuancePreparer interface {
	Prepare(ctx context.Context, in issuance.IssuanceInput) (usecase.IssuanceResult, error)
	Quote(t issuance.FeatureToggles) issuance.FeeQuote
}

// TokenHandler serves:
//   - POST /create-token
//   - GET  /fee-quote
type TokenHandler struct {
	uc IssuancePreparer
}

func NewTokenHandler(uc IssuancePreparer) http.Handler {
	return &TokenHandler{uc: uc}
}

// createTokenRequest は /create-token の入力。
// initialSupply は JSON number / string の両方を受け付ける。
type createTokenRequest struct {
	TokenName     string          `json:"tokenName"`
	TokenSymbol   string          `json:"tokenSymbol"`
	Decimals      json.Number     `json:"decimals"`
	InitialSupply json.RawMessage `json:"initialSupply"`
	OwnerAddress  string          `json:"ownerAddress"`

	ModifyCreator bool `json:"modifyCreator"`
	RevokeFreeze  bool `json:"revokeFreeze"`
	RevokeMint    bool `json:"revokeMint"`
	RevokeUpdate  bool `json:"revokeUpdate"`
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/create-token":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.createToken(w, r)
	case r.URL.Path == "/fee-quote":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.feeQuote(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

func (h *TokenHandler) createToken(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeError(w, http.StatusInternalServerError, "issuance usecase is not configured")
		return
	}

	var req createTokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	decimals, err := parseDecimals(req.Decimals)
	if err != nil {
		writeUsecaseErr(w, "create_token", err)
		return
	}
	supply, err := rawSupply(req.InitialSupply)
	if err != nil {
		writeUsecaseErr(w, "create_token", err)
		return
	}

	in := issuance.IssuanceInput{
		Name:          req.TokenName,
		Symbol:        req.TokenSymbol,
		Decimals:      decimals,
		InitialSupply: supply,
		OwnerAddress:  req.OwnerAddress,
		Toggles: issuance.FeatureToggles{
			ModifyCreator: req.ModifyCreator,
			RevokeFreeze:  req.RevokeFreeze,
			RevokeMint:    req.RevokeMint,
			RevokeUpdate:  req.RevokeUpdate,
		},
	}

	uid, _ := middleware.CurrentUID(r)
	log.Printf("[create_token] request name=%q symbol=%q decimals=%d owner=%s uid=%s", strings.TrimSpace(in.Name), strings.TrimSpace(in.Symbol), in.Decimals, maskShort(in.OwnerAddress), uid)

	res, err := h.uc.Prepare(r.Context(), in)
	if err != nil {
		writeUsecaseErr(w, "create_token", err)
		return
	}

	enc := issuance.EncodePair(res.Pair)
	writeJSON(w, http.StatusOK, envelope{
		"success":          true,
		"feeTransaction":   enc.FeeTransaction,
		"tokenTransaction": enc.TokenTransaction,
		"mintAddress":      enc.MintAddress,
		"totalFee":         res.Quote.Float(),
	})
}

func (h *TokenHandler) feeQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := issuance.FeatureToggles{
		ModifyCreator: parseBool(q.Get("modifyCreator")),
		RevokeFreeze:  parseBool(q.Get("revokeFreeze")),
		RevokeMint:    parseBool(q.Get("revokeMint")),
		RevokeUpdate:  parseBool(q.Get("revokeUpdate")),
	}

	var quote issuance.FeeQuote
	if h.uc != nil {
		quote = h.uc.Quote(t)
	} else {
		quote = issuance.QuoteFee(t)
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":        true,
		"baseFee":        quote.BaseFee,
		"perToggleFee":   quote.PerToggleFee,
		"enabledToggles": quote.EnabledToggles,
		"totalFee":       quote.TotalFee,
		"totalLamports":  quote.TotalLamports(),
	})
}

func parseDecimals(n json.Number) (int, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, &issuance.ValidationError{Field: "decimals", Cause: issuance.ErrDecimalsOutOfRange}
	}
	v, err := n.Int64()
	if err != nil || v < 0 || v > issuance.MaxDecimals {
		return 0, &issuance.ValidationError{Field: "decimals", Cause: issuance.ErrDecimalsOutOfRange}
	}
	return int(v), nil
}

// rawSupply accepts 1000, "1000" or "1,000" and returns the text form.
func rawSupply(raw json.RawMessage) (string, error) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", &issuance.ValidationError{Field: "initialSupply", Cause: issuance.ErrSupplyInvalid}
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", &issuance.ValidationError{Field: "initialSupply", Cause: issuance.ErrSupplyInvalid}
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", &issuance.ValidationError{Field: "initialSupply", Cause: issuance.ErrSupplyInvalid}
	}
	return n.String(), nil
}
