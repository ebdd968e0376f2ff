package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// IssueStaffToken mints an HS256 access token for the staff console.
func IssueStaffToken(secret []byte, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"scope": "staff",
		"typ":   "access",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseStaffToken validates a staff access token and returns its claims.
func ParseStaffToken(secret []byte, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if scope, _ := claims["scope"].(string); scope != "staff" {
		return nil, fmt.Errorf("token missing staff scope")
	}
	return claims, nil
}

// JWTMiddleware guards the reclassification routes with staff access tokens
type JWTMiddleware struct {
	Secret []byte
}

// Require rejects requests without a valid staff bearer token
func (j JWTMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		header := r.Header.Get("Authorization")
		parts := strings.Split(header, "Bearer ")
		if len(parts) < 2 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		if _, err := ParseStaffToken(j.Secret, parts[1]); err != nil {
			zap.S().Errorw("unauthorized staff token",
				"url", r.URL,
				"error", err.Error(),
			)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
