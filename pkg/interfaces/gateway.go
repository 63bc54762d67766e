package interfaces

import "github.com/caretrack/hms-backend/pkg/types"

// TokenValidator defines JWT token validation operations
type TokenValidator interface {
	ValidateJWT(tokenString string) (*types.UserClaims, error)
}

// RateLimiter defines rate limiting operations
type RateLimiter interface {
	Allow(userID string) (bool, error)
	Reset(userID string) error
	GetLimits(userID string) (int, int, error)
}
