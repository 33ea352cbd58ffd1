package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ddmr2811/Facturas/internal/models"
)

func setup(t *testing.T) {
	t.Helper()
	require.NoError(t, Init("test-secret", time.Hour))

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	inactive := false
	SetUsers([]models.UserConfig{
		{Username: "Ana", Name: "Ana Gestoría", PasswordHash: string(hash)},
		{Username: "old", Name: "Old", PasswordHash: string(hash), Active: &inactive},
	})
}

func TestInitRequiresSecret(t *testing.T) {
	assert.ErrorIs(t, Init("", time.Hour), ErrNoSecret)
}

func TestTokenRoundTrip(t *testing.T) {
	setup(t)

	token, err := GenerateToken("ana", "Ana")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "Ana", claims.Name)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "ana",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	setup(t)

	var seen *Claims
	h := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := GenerateToken("ana", "Ana")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "ana", seen.Username)
}

func login(body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body)))
	return rec
}

func TestLoginHandler(t *testing.T) {
	setup(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"success case insensitive", `{"username":"ANA","password":"s3cret"}`, http.StatusOK},
		{"wrong password", `{"username":"ana","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"bob","password":"s3cret"}`, http.StatusUnauthorized},
		{"inactive user", `{"username":"old","password":"s3cret"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"ana"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, login(tt.body).Code)
		})
	}

	rec := login(`{"username":"ana","password":"s3cret"}`)
	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ana", resp.Username)
	claims, err := ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana Gestoría", claims.Name)
}

func TestAuthenticateLockout(t *testing.T) {
	setup(t)
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < maxFailedLogins; i++ {
		_, ok := Authenticate("ana", "wrong", now)
		assert.False(t, ok)
	}
	_, ok := Authenticate("ana", "s3cret", now.Add(time.Minute))
	assert.False(t, ok, "locked account rejects the right password")

	_, ok = Authenticate("ana", "s3cret", now.Add(lockoutPeriod+time.Second))
	assert.True(t, ok)
}

func TestAuthenticateUnknownUsersNotTracked(t *testing.T) {
	setup(t)
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		_, ok := Authenticate(fmt.Sprintf("ghost%d", i), "x", now)
		assert.False(t, ok)
	}

	mu.RLock()
	defer mu.RUnlock()
	assert.Empty(t, failures)
}

func TestMeHandler(t *testing.T) {
	setup(t)

	rec := httptest.NewRecorder()
	MeHandler(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(WithClaims(req.Context(), &Claims{Username: "ana", Name: "Ana"}))
	rec = httptest.NewRecorder()
	MeHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ana"`)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}
