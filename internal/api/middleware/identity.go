package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/goccy/go-json"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

type callerKey struct{}

// Identity verifies the fernet tokens that carry the caller's account id and role.
// The first key signs new tokens; every key is accepted when verifying, so keys can
// be rotated by prepending a new one.
type Identity struct {
	keys []*fernet.Key
	ttl  time.Duration
}

// NewIdentity builds an Identity from a comma-separated list of base64 fernet keys.
func NewIdentity(keys string, ttl time.Duration) (*Identity, error) {
	var encoded []string
	for _, k := range strings.Split(keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			encoded = append(encoded, k)
		}
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("no identity keys configured")
	}

	decoded, err := fernet.DecodeKeys(encoded...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode identity keys: %w", err)
	}
	return &Identity{keys: decoded, ttl: ttl}, nil
}

// GenerateKey returns a fresh base64 fernet key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate identity key: %w", err)
	}
	return k.Encode(), nil
}

// IssueToken signs a token for caller with the primary key.
func (i *Identity) IssueToken(caller model.Caller) (string, error) {
	payload, err := json.Marshal(caller)
	if err != nil {
		return "", fmt.Errorf("failed to encode caller: %w", err)
	}
	tok, err := fernet.EncryptAndSign(payload, i.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(tok), nil
}

// Verify decodes a token and returns the caller it identifies.
func (i *Identity) Verify(token string) (model.Caller, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), i.ttl, i.keys)
	if msg == nil {
		return model.Caller{}, fmt.Errorf("%w: invalid or expired token", apperrors.ErrUnauthenticated)
	}

	var caller model.Caller
	if err := json.Unmarshal(msg, &caller); err != nil {
		return model.Caller{}, fmt.Errorf("%w: malformed token payload", apperrors.ErrUnauthenticated)
	}
	if caller.AccountID == "" || (caller.Role != model.RoleUser && caller.Role != model.RoleAdmin) {
		return model.Caller{}, fmt.Errorf("%w: incomplete identity", apperrors.ErrUnauthenticated)
	}
	return caller, nil
}

// Authenticate requires a valid "Authorization: Bearer <token>" header and stores the
// caller in the request context. Returns 401 Unauthorized otherwise.
func (i *Identity) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			response.RespondAppError(w, r, fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthenticated))
			return
		}

		caller, err := i.Verify(token)
		if err != nil {
			response.RespondAppError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireAdmin rejects callers without the admin role with 403 Forbidden.
// It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			response.RespondAppError(w, r, apperrors.ErrUnauthenticated)
			return
		}
		if !caller.IsAdmin() {
			response.RespondAppError(w, r, apperrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated caller stored by Authenticate.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(model.Caller)
	return caller, ok
}
