package middleware

import (
	"net/http"
	"strings"

	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey         = "auth_claims"
	requestContextKey = "request_context"
	requestIDKey      = "request_id"
)

// Authenticate проверяет JWT из заголовка Authorization и сохраняет claims в контексте gin
func Authenticate(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithMessage(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		// Убираем префикс "Bearer "
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			abortWithMessage(c, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := utils.ParseAccessToken(strings.TrimSpace(tokenString), jwtSecret)
		if err != nil {
			utils.Logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("access token rejected")
			abortWithMessage(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// SetClaims сохраняет claims проверенного токена
func SetClaims(c *gin.Context, claims *utils.AccessClaims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom возвращает claims, сохраненные Authenticate
func ClaimsFrom(c *gin.Context) (*utils.AccessClaims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.AccessClaims)
	return claims, ok
}

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
