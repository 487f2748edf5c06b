//go:build !integration

package web

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signWith(t *testing.T, method jwt.SigningMethod, secret, userID string) string {
	t.Helper()
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Subject:   userID,
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return signed
}

func TestAuthManagerSigningMethod(t *testing.T) {
	auth := NewAuthManager("test-secret", false, time.Hour)

	t.Run("accepts its own HS256 tokens", func(t *testing.T) {
		claims, err := auth.parse(signWith(t, jwt.SigningMethodHS256, "test-secret", "user-1"))
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if claims.UserID != "user-1" {
			t.Errorf("got user %q", claims.UserID)
		}
	})

	t.Run("rejects tokens signed with another algorithm", func(t *testing.T) {
		// Same secret, different HMAC variant; only HS256 is pinned.
		if _, err := auth.parse(signWith(t, jwt.SigningMethodHS512, "test-secret", "user-1")); err == nil {
			t.Error("expected an error for an HS512 token")
		}
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		if _, err := auth.parse(signWith(t, jwt.SigningMethodHS256, "other-secret", "user-1")); err == nil {
			t.Error("expected an error for a foreign signature")
		}
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		claims := SessionClaims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		if _, err := auth.parse(signed); err == nil {
			t.Error("expected an error for an expired token")
		}
	})
}
