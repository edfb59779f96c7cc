package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"storehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, path=/, domain="", secure, HttpOnly
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	// refresh_token: 7 days, path=/, domain="", secure, HttpOnly
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// PermissionChecker resolves whether a user currently holds a capability.
// Satisfied by service.AuthzService; declared here so the middleware does
// not depend on the service package.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, code string) (bool, error)
}

// checker holds the authorization backend, set via InitPermissionMiddleware
var checker PermissionChecker

// InitPermissionMiddleware wires the authorization backend for RequirePermission
func InitPermissionMiddleware(c PermissionChecker) {
	checker = c
}

// authenticate parses the JWT from cookie or Authorization header.
// Returns the subject claim or aborts with 401 (missing/invalid identity
// is AUTH_REQUIRED, distinct from a permission denial).
func authenticate(c *gin.Context) (string, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return "", false
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return "", false
		}
		tokenString = parts[1]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return "", false
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Subject not found in token"))
		return "", false
	}

	if role, ok := claims["role"].(string); ok {
		c.Set("userRole", role)
	}
	c.Set("userID", userID)

	return userID, true
}

// RequireAuth validates the JWT and stores the user identity on the context.
// Any authenticated user passes; use RequirePermission for capability gating.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission validates the JWT and checks that the user's role
// grants every listed permission code. Unknown codes simply never match,
// so a typo in a route registration fails closed.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticate(c)
		if !ok {
			return
		}

		if checker == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Permission middleware not initialized"))
			return
		}

		for _, required := range requiredPerms {
			allowed, err := checker.HasPermission(c.Request.Context(), userID, required)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
				return
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}
