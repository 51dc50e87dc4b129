package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sports-portal/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
	got    string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	s.got = token
	return s.claims, s.err
}

func capture(t *testing.T, verifier auth.AuthVerifier, req *http.Request) (auth.Claims, bool) {
	t.Helper()
	var (
		got auth.Claims
		ok  bool
	)
	h := AuthContext(verifier)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = GetClaims(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserIDHeader, "off-1")
	req.Header.Set(DebugRoleHeader, "Official")
	req.Header.Set(DebugAdminHeader, "true")

	c, ok := capture(t, nil, req)
	assert.True(t, ok)
	assert.Equal(t, auth.Claims{UserID: "off-1", Role: "official", IsAdmin: true}, c)
}

func TestAuthContext_DevModeWithoutHeader(t *testing.T) {
	_, ok := capture(t, nil, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestAuthContext_BearerToken(t *testing.T) {
	v := &stubVerifier{claims: auth.Claims{UserID: "coach-1", Role: "coach"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc.def")

	c, ok := capture(t, v, req)
	assert.True(t, ok)
	assert.Equal(t, "coach-1", c.UserID)
	assert.Equal(t, "abc.def", v.got)
}

func TestAuthContext_VerifierErrorLeavesRequestAnonymous(t *testing.T) {
	v := &stubVerifier{err: errors.New("expired")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set(DebugUserIDHeader, "ignored-when-verifier-set")

	_, ok := capture(t, v, req)
	assert.False(t, ok)
}
