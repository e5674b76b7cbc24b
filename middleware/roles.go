package middleware

import (
	"net/http"

	"lendingdesk/models"

	"github.com/gin-gonic/gin"
)

// RequireRoles пропускает только перечисленные роли; super_admin проходит всегда
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := RequestContextFrom(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !rc.IsSuperAdmin && !rc.HasRole(roles...) {
			abortWithMessage(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
