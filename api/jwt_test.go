package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestIssueAndParseStaffToken(t *testing.T) {
	secret := []byte("test-jwt-secret")

	token, err := IssueStaffToken(secret, "staff@civicsetu.in")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseStaffToken(secret, token)
	assert.NoError(t, err)
	assert.Equal(t, "staff@civicsetu.in", claims["email"])
	assert.Equal(t, "staff", claims["scope"])
}

func TestParseStaffToken_WrongSecret(t *testing.T) {
	token, err := IssueStaffToken([]byte("right-secret"), "staff@civicsetu.in")
	assert.NoError(t, err)

	_, err = ParseStaffToken([]byte("wrong-secret"), token)
	assert.Error(t, err)
}

func TestParseStaffToken_MissingScope(t *testing.T) {
	secret := []byte("test-jwt-secret")
	claims := jwt.MapClaims{
		"sub": "staff@civicsetu.in",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	assert.NoError(t, err)

	_, err = ParseStaffToken(secret, token)
	assert.Error(t, err)
}

func TestParseStaffToken_Expired(t *testing.T) {
	secret := []byte("test-jwt-secret")
	claims := jwt.MapClaims{
		"sub":   "staff@civicsetu.in",
		"scope": "staff",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	assert.NoError(t, err)

	_, err = ParseStaffToken(secret, token)
	assert.Error(t, err)
}

func TestJWTMiddleware_Require(t *testing.T) {
	secret := []byte("test-jwt-secret")
	mw := JWTMiddleware{Secret: secret}

	called := false
	handler := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	// no header
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/complaints/reprioritize", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)

	// garbage token
	req := httptest.NewRequest("POST", "/api/v1/complaints/reprioritize", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)

	// valid token
	token, err := IssueStaffToken(secret, "staff@civicsetu.in")
	assert.NoError(t, err)
	req = httptest.NewRequest("POST", "/api/v1/complaints/reprioritize", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
