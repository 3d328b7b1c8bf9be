package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// SelfScope is the RBAC pseudo-role granting cadets access to routes
// whose :id or :cadetId parameter matches their own identity.
const SelfScope = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowSelf := false
		allowedRoles := make(map[models.UserRole]struct{})

		for _, a := range allowed {
			if a == SelfScope {
				allowSelf = true
				continue
			}
			allowedRoles[models.UserRole(a)] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && matchesSelf(c, claims) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// matchesSelf compares the route's target against the caller. Cadet tokens
// carry the cadet profile ID so cadet-scoped routes match on it; user-scoped
// routes match on the user ID.
func matchesSelf(c *gin.Context, claims *models.JWTClaims) bool {
	target := c.Param("cadetId")
	if target == "" {
		target = c.Param("id")
	}
	if target == "" {
		return false
	}
	if claims.CadetID != "" && target == claims.CadetID {
		return true
	}
	return target == claims.UserID
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
