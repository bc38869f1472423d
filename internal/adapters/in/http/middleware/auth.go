// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// TokenVerifier は *fbauth.Client が満たす。
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// context key は string を使わず独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var ctxKeyUID = ctxKey{name: "uid"}

// AuthMiddleware は Authorization: Bearer <ID_TOKEN> を検証し、uid を context に詰める。
// AUTH_REQUIRED=true のときだけ POST ルートに掛ける。
type AuthMiddleware struct {
	Verifier TokenVerifier
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if m == nil || m.Verifier == nil {
			writeAuthError(w, http.StatusServiceUnavailable, "auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized: empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeAuthError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		log.Printf("[AuthMiddleware] path=%s uid=%s", r.URL.Path, uid)

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUID は middleware で検証された Firebase UID を返す。
func CurrentUID(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(ctxKeyUID).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
