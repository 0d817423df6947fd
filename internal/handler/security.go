package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/oakmart/storefront/internal/domain/auth"
)

// Security authenticates API requests via HMAC-SHA256 hashed API keys.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security guard with the given API key repository and
// HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Require wraps next so it only runs for requests carrying a valid API key
// with the given scope in the "api_key" header.
func (s *Security) Require(scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			respondError(w, r, http.StatusUnauthorized, "missing api key")
			return
		}

		info, ok := s.authenticate(r, key)
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !info.HasScope(scope) {
			respondError(w, r, http.StatusForbidden, "insufficient scope")
			return
		}

		next(w, r)
	}
}

// authenticate computes the HMAC-SHA256 of the provided key, looks it up in
// the repository, and performs a constant-time comparison to prevent timing
// attacks.
func (s *Security) authenticate(r *http.Request, key string) (*auth.APIKeyInfo, bool) {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
	if err != nil {
		return nil, false
	}

	// Constant-time comparison guards against timing side-channels even though
	// the lookup already succeeded. The stored hash could differ from what we
	// computed if the repository returns a stale or wrong row.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, false
	}

	return info, true
}
