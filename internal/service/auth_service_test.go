package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/csl-management-api/internal/models"
	appErrors "github.com/noah-isme/csl-management-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func adminClaims(expiresIn time.Duration) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		UserID: "admin-1",
		Role:   models.RoleAdmin,
		Email:  "admin@csl.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "csl-auth",
			Audience:  jwt.ClaimStrings{"csl-admin"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "csl-auth", Audience: "csl-admin"})

	claims, err := svc.ValidateToken(signToken(t, "secret", adminClaims(time.Hour), jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "csl-auth", Audience: "csl-admin"})

	cases := map[string]string{
		"wrong secret": signToken(t, "other", adminClaims(time.Hour), jwt.SigningMethodHS256),
		"expired":      signToken(t, "secret", adminClaims(-time.Minute), jwt.SigningMethodHS256),
		"wrong alg":    signToken(t, "secret", adminClaims(time.Hour), jwt.SigningMethodHS512),
		"garbage":      "not-a-token",
	}
	wrongIssuer := adminClaims(time.Hour)
	wrongIssuer.Issuer = "someone-else"
	cases["wrong issuer"] = signToken(t, "secret", wrongIssuer, jwt.SigningMethodHS256)
	noSubject := adminClaims(time.Hour)
	noSubject.UserID = ""
	cases["missing user"] = signToken(t, "secret", noSubject, jwt.SigningMethodHS256)

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
