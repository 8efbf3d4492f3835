package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/backoffice-insights/internal/domain/auth"
)

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "api_key"

// SecurityHandler authenticates requests via HMAC-SHA256 hashed API keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate resolves the API key of r. It returns nil when the key is
// missing or unknown.
func (s *SecurityHandler) Authenticate(r *http.Request) *auth.APIKeyInfo {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return nil
	}
	hexHash := auth.Hash(s.pepper, key)

	info, err := s.apikeys.FindByHash(r.Context(), hexHash)
	if err != nil {
		return nil
	}

	// The repository may match case-insensitively, so compare the raw bytes.
	hash, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil
	}
	return info
}

// Identify returns the name of the API key of r, so that requests are rate
// limited per configured key rather than per header value.
func (s *SecurityHandler) Identify(r *http.Request) (string, bool) {
	info := s.Authenticate(r)
	if info == nil {
		return "", false
	}
	return info.Name, true
}

// Middleware rejects requests without a valid API key with 401.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.Authenticate(r)
		if info == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := zctx.With(r.Context(), zap.String("api_key", info.Name))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
