// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const maxBodyBytes = 1 << 20

// envelope は全レスポンス共通の形 { success, error?, ...payload }。
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "error": msg})
}

// writeUsecaseErr maps the error taxonomy to HTTP status.
//
//	ValidationError    -> 400
//	ConfigurationError -> 500
//	others             -> 500
func writeUsecaseErr(w http.ResponseWriter, tag string, err error) {
	var cfgErr *issuance.ConfigurationError
	switch {
	case issuance.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &cfgErr):
		log.Printf("[%s] ERROR: %v", tag, err)
		writeError(w, http.StatusInternalServerError, "server signing key is not configured ("+cfgErr.Key+")")
	default:
		log.Printf("[%s] ERROR: %v", tag, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

// decodeBody reads a single JSON object into dst.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
