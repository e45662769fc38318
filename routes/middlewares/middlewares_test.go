package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func echoClaims(t *testing.T) (http.Handler, **Claims) {
	t.Helper()
	var got *Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Session(secret)(inner), &got
}

func serve(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSessionRoundTrip(t *testing.T) {
	token, err := SignToken(secret, RoleWhistleblower, "sub-42", time.Minute)
	require.NoError(t, err)

	handler, got := echoClaims(t)
	rec := serve(handler, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, *got)
	assert.Equal(t, RoleWhistleblower, (*got).Role)
	assert.Equal(t, "sub-42", (*got).SubmissionID)
}

func TestSessionRejects(t *testing.T) {
	expired, err := SignToken(secret, RoleAdmin, "", -time.Minute)
	require.NoError(t, err)
	foreign, err := SignToken([]byte("other-secret"), RoleAdmin, "", time.Minute)
	require.NoError(t, err)

	// only HS256 signatures are accepted
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	handler, _ := echoClaims(t)
	for name, token := range map[string]string{
		"missing":       "",
		"malformed":     "not.a.token",
		"expired":       expired,
		"wrong secret":  foreign,
		"unsigned none": unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(handler, token).Code)
		})
	}
}

func TestRole(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Session(secret)(Role(RoleAdmin)(inner))

	admin, err := SignToken(secret, RoleAdmin, "", time.Minute)
	require.NoError(t, err)
	wb, err := SignToken(secret, RoleWhistleblower, "", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(handler, admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(handler, wb).Code)

	// without a session there are no claims at all
	assert.Equal(t, http.StatusForbidden, serve(Role(RoleAdmin)(inner), "").Code)
}
