package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/infrastructure/auth"
	"github.com/pharmaops/backend/internal/infrastructure/logger"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTUserIDKey     = "jwt_user_id"
	JWTPharmacyIDKey = "jwt_pharmacy_id"
	JWTUsernameKey   = "jwt_username"
	JWTRoleKey       = "jwt_role"
	TenantContextKey = "tenant_context"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
			"/api/v1/auth/login",
		},
	}
}

func (cfg *JWTMiddlewareConfig) skips(path string) bool {
	for _, skipPath := range cfg.SkipPaths {
		if path == skipPath {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.skips(c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			handleAuthError(c, cfg, auth.ErrInvalidToken, err.Error())
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if revoked, reason := tokenRevoked(c.Request.Context(), cfg, claims); revoked {
			handleAuthError(c, cfg, auth.ErrTokenRevoked, reason)
			return
		}

		// Resolve the operator context up front so handlers never parse claims.
		// Unknown roles pass through here and fail closed at scope resolution.
		tenantCtx, err := claims.TenantContext()
		if err != nil {
			handleAuthError(c, cfg, err, "Malformed token claims")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTPharmacyIDKey, claims.PharmacyID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Set(JWTRoleKey, claims.Role)
		c.Set(TenantContextKey, tenantCtx)

		// Also seed the request context so log entries carry the identity
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithUserID(ctx, log, claims.UserID)
		if claims.PharmacyID != "" {
			ctx, _ = logger.WithPharmacyID(ctx, log, claims.PharmacyID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("pharmacy_id", claims.PharmacyID),
				zap.String("role", claims.Role),
			)
		}

		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header == "" {
		return "", errors.New("Missing authorization header")
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", errors.New("Invalid authorization header format")
	}
	token := strings.TrimPrefix(header, BearerPrefix)
	if token == "" {
		return "", errors.New("Missing token")
	}
	return token, nil
}

// tokenRevoked consults the blacklist for the token's JTI and for a global
// invalidation of the user's sessions. Lookup failures fail open; a dead
// Redis must not take authentication down with it.
func tokenRevoked(ctx context.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) (bool, string) {
	if cfg.TokenBlacklist == nil {
		return false, ""
	}

	if claims.ID != "" {
		blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		switch {
		case err != nil:
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check token blacklist",
					zap.String("jti", claims.ID),
					zap.Error(err))
			}
		case blacklisted:
			return true, "Token has been revoked"
		}
	}

	if claims.UserID != "" {
		invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		switch {
		case err != nil:
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check user token invalidation",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
			}
		case invalidated:
			return true, "User session has been invalidated"
		}
	}

	return false, ""
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode, errorMessage := "UNAUTHORIZED", "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode, errorMessage = "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken):
		errorCode, errorMessage = "INVALID_TOKEN", "Invalid token"
	case errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingUserID):
		errorCode, errorMessage = "INVALID_CLAIMS", "Malformed token claims"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode, errorMessage = "TOKEN_NOT_VALID", "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenRevoked):
		errorCode, errorMessage = "TOKEN_REVOKED", "Token has been revoked"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    errorCode,
			"message": errorMessage,
		},
	})
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetTenantContext retrieves the resolved operator context from gin.Context.
// The second return is false when the request was not authenticated.
func GetTenantContext(c *gin.Context) (identity.TenantContext, bool) {
	if v, exists := c.Get(TenantContextKey); exists {
		if tc, ok := v.(identity.TenantContext); ok {
			return tc, true
		}
	}
	return identity.TenantContext{}, false
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string { return claimString(c, JWTUserIDKey) }

// GetJWTPharmacyID retrieves the pharmacy ID from JWT claims in context
func GetJWTPharmacyID(c *gin.Context) string { return claimString(c, JWTPharmacyIDKey) }

// GetJWTUsername retrieves the username from JWT claims in context
func GetJWTUsername(c *gin.Context) string { return claimString(c, JWTUsernameKey) }

// GetJWTRole retrieves the role from JWT claims in context
func GetJWTRole(c *gin.Context) string { return claimString(c, JWTRoleKey) }
