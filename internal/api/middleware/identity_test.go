package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/model"
)

func newIdentity(t *testing.T) (*middleware.Identity, string) {
	t.Helper()
	key, err := middleware.GenerateKey()
	require.NoError(t, err)
	id, err := middleware.NewIdentity(key, time.Hour)
	require.NoError(t, err)
	return id, key
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) apperrors.Kind {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Kind
}

func TestNewIdentity(t *testing.T) {
	t.Run("rejects an empty key list", func(t *testing.T) {
		_, err := middleware.NewIdentity(" , ", time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		_, err := middleware.NewIdentity("not-a-key", time.Hour)
		assert.Error(t, err)
	})

	t.Run("accepts tokens signed by any configured key", func(t *testing.T) {
		old, oldKey := newIdentity(t)
		newKey, err := middleware.GenerateKey()
		require.NoError(t, err)

		rotated, err := middleware.NewIdentity(newKey+","+oldKey, time.Hour)
		require.NoError(t, err)

		tok, err := old.IssueToken(model.Caller{AccountID: "acc-1", Role: model.RoleUser})
		require.NoError(t, err)

		caller, err := rotated.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", caller.AccountID)
	})
}

func TestIdentity_Authenticate(t *testing.T) {
	identity, _ := newIdentity(t)

	var seen model.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := identity.Authenticate(next)

	t.Run("stores the caller for a valid token", func(t *testing.T) {
		tok, err := identity.IssueToken(model.Caller{AccountID: "acc-7", Role: model.RoleAdmin})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/investments/x", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "acc-7", seen.AccountID)
		assert.True(t, seen.IsAdmin())
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/investments/x", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.KindUnauthenticated, errorKind(t, w))
	})

	t.Run("rejects a token from another key", func(t *testing.T) {
		other, _ := newIdentity(t)
		tok, err := other.IssueToken(model.Caller{AccountID: "acc-7", Role: model.RoleUser})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/investments/x", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a token without a role", func(t *testing.T) {
		tok, err := identity.IssueToken(model.Caller{AccountID: "acc-7"})
		require.NoError(t, err)

		_, err = identity.Verify(tok)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}

func TestRequireAdmin(t *testing.T) {
	called := false
	handler := middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		caller     *model.Caller
		wantStatus int
	}{
		{"admin passes", &model.Caller{AccountID: "a", Role: model.RoleAdmin}, http.StatusOK},
		{"user is forbidden", &model.Caller{AccountID: "a", Role: model.RoleUser}, http.StatusForbidden},
		{"anonymous is unauthenticated", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodPost, "/api/admin/returns/distribute", nil)
			if tt.caller != nil {
				req = req.WithContext(middleware.WithCaller(req.Context(), *tt.caller))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}
