package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/caretrack/hms-backend/pkg/config"
	"github.com/caretrack/hms-backend/pkg/types"
)

const testSecret = "test-secret-key"

func newTestValidator() *TokenValidator {
	return NewTokenValidator(&config.JWTConfig{
		SecretKey:      testSecret,
		AccessTokenTTL: 3600,
		Issuer:         "caretrack-api-gateway",
	})
}

func signTestToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()

	claims := &JWTClaims{
		UserID:      "user-1",
		Username:    "dana",
		Role:        string(types.RolePharmacist),
		OrgID:       "org-1",
		Permissions: []string{"medicines:read"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "caretrack-api-gateway",
			Subject:   "user-1",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestValidateJWT(t *testing.T) {
	tv := newTestValidator()

	tokenString := signTestToken(t, testSecret, time.Now().Add(time.Hour))

	claims, err := tv.ValidateJWT(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "dana", claims.Username)
	assert.Equal(t, types.RolePharmacist, claims.Role)
	assert.Equal(t, []string{"medicines:read"}, claims.Permissions)
}

func TestValidateJWT_Expired(t *testing.T) {
	tv := newTestValidator()

	tokenString := signTestToken(t, testSecret, time.Now().Add(-time.Hour))

	_, err := tv.ValidateJWT(tokenString)
	assert.Error(t, err)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	tv := newTestValidator()

	tokenString := signTestToken(t, "some-other-secret", time.Now().Add(time.Hour))

	_, err := tv.ValidateJWT(tokenString)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	tv := newTestValidator()

	_, err := tv.ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWT_WrongSigningMethod(t *testing.T) {
	tv := newTestValidator()

	// Unsigned token must be rejected even with valid claims
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = tv.ValidateJWT(signed)
	assert.Error(t, err)
}
